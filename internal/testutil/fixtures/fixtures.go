// Package fixtures provides common test entities
package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
)

// ClientActor returns an actor with the client role
func ClientActor() domain.Actor {
	return domain.Actor{ID: "client-1", Username: "acme-ops", IsClient: true}
}

// ServiceActor returns a service-account actor
func ServiceActor() domain.Actor {
	return domain.Actor{ID: "svc-1", Username: "importer", IsServiceAccount: true}
}

// WorkerActor returns a regular worker actor with the given user id
func WorkerActor(userID string) domain.Actor {
	return domain.Actor{ID: userID, Username: "worker-" + userID}
}

// DraftPayment returns a draft payment for userID
func DraftPayment(userID string, amount int64) *models.Payment {
	return &models.Payment{
		ID:             uuid.New(),
		UserID:         userID,
		Amount:         amount,
		Description:    "task completion",
		Status:         models.PaymentStatusDraft,
		OriginalAmount: amount,
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		CreatedBy:      "acme-ops",
	}
}

// PendingPayment returns an approved payment whose release date is releasedAt
func PendingPayment(userID string, amount int64, releasedAt time.Time) *models.Payment {
	p := DraftPayment(userID, amount)
	approvedAt := releasedAt.Add(-15 * 24 * time.Hour)
	p.Status = models.PaymentStatusPending
	p.ApprovedAt = &approvedAt
	p.ReleasedAt = &releasedAt
	return p
}

// ConnectedAccount returns a Connected payout account for userID
func ConnectedAccount(userID string) *models.PaymentAccount {
	connectedAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &models.PaymentAccount{
		ID:              uuid.New(),
		UserID:          userID,
		StripeAccountID: "acct_" + userID,
		Status:          models.AccountStatusConnected,
		CreatedAt:       connectedAt.Add(-time.Hour),
		ConnectedAt:     &connectedAt,
	}
}

// CreatedAccount returns a not-yet-connected payout account for userID
func CreatedAccount(userID string) *models.PaymentAccount {
	return &models.PaymentAccount{
		ID:              uuid.New(),
		UserID:          userID,
		StripeAccountID: "acct_" + userID,
		Status:          models.AccountStatusCreated,
		CreatedAt:       time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
}
