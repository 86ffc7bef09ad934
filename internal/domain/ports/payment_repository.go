package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crowdcraft/payments/internal/domain/models"
)

// PaymentRepository persists Payment entities.
//
// All methods accept a DBTX; passing nil runs the statement on the pool
// outside any transaction.
type PaymentRepository interface {
	// Create inserts a new payment
	Create(ctx context.Context, tx DBTX, payment *models.Payment) error

	// GetByID retrieves a payment by id. Returns (nil, nil) when no row exists.
	GetByID(ctx context.Context, tx DBTX, id uuid.UUID) (*models.Payment, error)

	// Update persists all mutable fields of the payment, guarded by the
	// status the caller observed when it loaded the row. Returns false when
	// the row no longer holds the expected status (a concurrent transition
	// won), leaving the row untouched.
	Update(ctx context.Context, tx DBTX, payment *models.Payment, expected models.PaymentStatus) (bool, error)

	// ListForUser returns the user's payments in the given statuses,
	// newest first, paginated by limit/offset.
	ListForUser(ctx context.Context, tx DBTX, userID string, statuses []models.PaymentStatus, limit, offset int32) ([]*models.Payment, error)

	// ListByExternalIDs returns payments whose external id matches any of the
	// given references, restricted to the given statuses. A non-empty userID
	// additionally restricts results to that user.
	ListByExternalIDs(ctx context.Context, tx DBTX, externalIDs []string, userID string, statuses []models.PaymentStatus) ([]*models.Payment, error)

	// SumAmountByStatus returns the total amount over payments in the given
	// status. An empty userID sums across all users. Returns 0 when no rows
	// match.
	SumAmountByStatus(ctx context.Context, tx DBTX, userID string, status models.PaymentStatus) (int64, error)

	// ApproveStaleDrafts transitions every draft created before the cutoff to
	// Pending in a single set-based update, stamping approval and release
	// timestamps. Returns the number of rows updated.
	ApproveStaleDrafts(ctx context.Context, tx DBTX, cutoff, approvedAt, releasedAt time.Time) (int64, error)

	// ListUserIDsWithPendingTotalAtLeast returns the ids of users whose
	// pending payments sum to at least minTotal. This is a coarse pre-filter
	// for the payout batch; the release-date gate is applied separately.
	ListUserIDsWithPendingTotalAtLeast(ctx context.Context, tx DBTX, minTotal int64) ([]string, error)

	// ListReleasable returns the user's pending payments whose release date
	// has elapsed as of asOf.
	ListReleasable(ctx context.Context, tx DBTX, userID string, asOf time.Time) ([]*models.Payment, error)

	// ClaimForPayout marks the given payments Paid and assigns them to the
	// payout in one conditional update. Rows that are no longer Pending are
	// left untouched. Returns the number of rows actually claimed.
	ClaimForPayout(ctx context.Context, tx DBTX, ids []uuid.UUID, payoutID uuid.UUID, paidAt time.Time) (int64, error)
}
