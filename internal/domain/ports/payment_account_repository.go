package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/crowdcraft/payments/internal/domain/models"
)

// PaymentAccountRepository persists PaymentAccount entities
type PaymentAccountRepository interface {
	// Create inserts a new payment account
	Create(ctx context.Context, tx DBTX, account *models.PaymentAccount) error

	// Update persists the account's status and connected timestamp
	Update(ctx context.Context, tx DBTX, account *models.PaymentAccount) error

	// GetByID retrieves an account by id. Returns (nil, nil) when no row exists.
	GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (*models.PaymentAccount, error)

	// GetByUserID retrieves the account owned by userID.
	// Returns (nil, nil) when no row exists.
	GetByUserID(ctx context.Context, tx DBTX, userID string) (*models.PaymentAccount, error)

	// GetConnectedByUserID retrieves the account owned by userID only if it
	// is Connected. Returns (nil, nil) otherwise.
	GetConnectedByUserID(ctx context.Context, tx DBTX, userID string) (*models.PaymentAccount, error)
}
