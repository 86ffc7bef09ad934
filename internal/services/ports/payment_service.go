package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
)

// CreatePaymentRequest carries the inputs for creating a draft payment
type CreatePaymentRequest struct {
	UserID      string `json:"userId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ExternalID  string `json:"externalId"`
}

// UpdatePaymentRequest carries the inputs for updating a draft payment.
// Approve folds the approval transition into the same update.
type UpdatePaymentRequest struct {
	ID          uuid.UUID `json:"id"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Approve     bool      `json:"approve"`
}

// PaymentDetails is the caller-facing projection of a payment.
// Timestamps are ISO-8601 strings or null.
type PaymentDetails struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"userId"`
	Amount         int64     `json:"amount"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	OriginalAmount int64     `json:"originalAmount"`
	ApprovedAt     *string   `json:"approvedAt"`
	PaidAt         *string   `json:"paidAt"`
	ExternalID     string    `json:"externalId"`
}

// PaymentStats aggregates a user's payment amounts per status
type PaymentStats struct {
	DraftPaymentsAmount   int64 `json:"draftPaymentsAmount"`
	PendingPaymentsAmount int64 `json:"pendingPaymentsAmount"`
	TotalEarnings         int64 `json:"totalEarnings"`
}

// ClientPaymentStats aggregates system-wide expenses for clients
type ClientPaymentStats struct {
	TotalExpenses int64 `json:"totalExpenses"`
}

// CreatePaymentAccountResponse carries the onboarding URL for an account
type CreatePaymentAccountResponse struct {
	URL string `json:"url"`
}

// PaymentLifecycleService enforces the payment and payment-account state
// machines, including validation, authorization, and timestamp stamping.
type PaymentLifecycleService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest, actor domain.Actor) (*models.Payment, error)
	UpdatePayment(ctx context.Context, req UpdatePaymentRequest, actor domain.Actor) (*models.Payment, error)
	ApprovePayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error)
	CancelPayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error)
	GetPaymentsForUser(ctx context.Context, userID string, page, perPage int, actor domain.Actor) ([]PaymentDetails, error)
	GetReferencePayments(ctx context.Context, externalIDs []string, actor domain.Actor) ([]PaymentDetails, error)
	GetPaymentStats(ctx context.Context, userID string, actor domain.Actor) (*PaymentStats, error)
	GetClientPaymentStats(ctx context.Context, actor domain.Actor) (*ClientPaymentStats, error)
	GetPaymentAccount(ctx context.Context, userID string, actor domain.Actor) (*models.PaymentAccount, error)
	GetPaymentAccountURL(ctx context.Context, userID string, actor domain.Actor) (*CreatePaymentAccountResponse, error)
}
