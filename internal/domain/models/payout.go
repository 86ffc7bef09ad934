package models

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus represents the transfer state of a payout batch
type PayoutStatus string

const (
	PayoutStatusCreated PayoutStatus = "Created"
	PayoutStatusPaid    PayoutStatus = "Paid"
)

// Payout is a batch transfer of funds to a connected account. Amount equals
// the sum of the payments claimed by the payout at creation time; the set of
// claimed payments is written once and never modified.
type Payout struct {
	ID               uuid.UUID
	PaymentAccountID uuid.UUID
	CreatedAt        time.Time
	Amount           int64
	Status           PayoutStatus
	TransferID       string
}
