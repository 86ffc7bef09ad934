package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentAccountStatus represents the onboarding state of a payout account
type PaymentAccountStatus string

const (
	// AccountStatusCreated means the Stripe account exists but onboarding is incomplete
	AccountStatusCreated PaymentAccountStatus = "Created"
	// AccountStatusConnected means Stripe reported payouts_enabled for the account
	AccountStatusConnected PaymentAccountStatus = "Connected"
)

// PaymentAccount links a worker to their connected Stripe Express account.
// At most one account exists per user.
type PaymentAccount struct {
	ID              uuid.UUID
	UserID          string
	StripeAccountID string
	Status          PaymentAccountStatus
	CreatedAt       time.Time
	ConnectedAt     *time.Time
}
