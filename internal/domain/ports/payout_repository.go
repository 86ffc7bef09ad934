package ports

import (
	"context"

	"github.com/crowdcraft/payments/internal/domain/models"
)

// PayoutRepository persists Payout entities
type PayoutRepository interface {
	// Create inserts a new payout
	Create(ctx context.Context, tx DBTX, payout *models.Payout) error

	// Update persists the payout's status and transfer reference
	Update(ctx context.Context, tx DBTX, payout *models.Payout) error

	// ListByStatus returns all payouts in the given status, oldest first
	ListByStatus(ctx context.Context, tx DBTX, status models.PayoutStatus) ([]*models.Payout, error)
}
