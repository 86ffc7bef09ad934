package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
)

const paymentColumns = `id, user_id, amount, description, status, original_amount,
	created_at, updated_at, approved_at, released_at, paid_at, cancelled_at,
	created_by, updated_by, external_id, payout_id`

// PaymentRepository implements ports.PaymentRepository using pgx
type PaymentRepository struct {
	db ports.DBPort
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db ports.DBPort) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// q returns the transaction when one is supplied, the pool otherwise
func (r *PaymentRepository) q(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// Create inserts a new payment
func (r *PaymentRepository) Create(ctx context.Context, tx ports.DBTX, p *models.Payment) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO payments (
			id, user_id, amount, description, status, original_amount,
			created_at, created_by, external_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.Amount, nullText(p.Description), string(p.Status),
		p.OriginalAmount, p.CreatedAt, nullText(p.CreatedBy), nullText(p.ExternalID),
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by id. Returns (nil, nil) when no row exists.
func (r *PaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, id uuid.UUID) (*models.Payment, error) {
	row := r.q(tx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)

	p, err := scanPayment(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return p, nil
}

// Update persists all mutable fields of the payment. The expected-status
// predicate makes concurrent transitions lose cleanly instead of silently
// overwriting a terminal state.
func (r *PaymentRepository) Update(ctx context.Context, tx ports.DBTX, p *models.Payment, expected models.PaymentStatus) (bool, error) {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE payments SET
			amount = $2, description = $3, status = $4,
			updated_at = $5, approved_at = $6, released_at = $7,
			paid_at = $8, cancelled_at = $9, updated_by = $10, payout_id = $11
		WHERE id = $1 AND status = $12`,
		p.ID, p.Amount, nullText(p.Description), string(p.Status),
		p.UpdatedAt, p.ApprovedAt, p.ReleasedAt,
		p.PaidAt, p.CancelledAt, nullText(p.UpdatedBy), p.PayoutID,
		string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListForUser returns the user's payments in the given statuses, newest first
func (r *PaymentRepository) ListForUser(ctx context.Context, tx ports.DBTX, userID string, statuses []models.PaymentStatus, limit, offset int32) ([]*models.Payment, error) {
	rows, err := r.q(tx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1 AND status = ANY($2)
		 ORDER BY created_at DESC, id
		 LIMIT $3 OFFSET $4`,
		userID, statusStrings(statuses), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments for user: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

// ListByExternalIDs returns payments matching any of the given external ids
func (r *PaymentRepository) ListByExternalIDs(ctx context.Context, tx ports.DBTX, externalIDs []string, userID string, statuses []models.PaymentStatus) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		 WHERE external_id = ANY($1) AND status = ANY($2)`
	args := []any{externalIDs, statusStrings(statuses)}
	if userID != "" {
		query += ` AND user_id = $3`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.q(tx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments by external ids: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

// SumAmountByStatus returns the total amount over payments in the given status
func (r *PaymentRepository) SumAmountByStatus(ctx context.Context, tx ports.DBTX, userID string, status models.PaymentStatus) (int64, error) {
	query := `SELECT SUM(amount) FROM payments WHERE status = $1`
	args := []any{string(status)}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}

	var sum pgtype.Numeric
	if err := r.q(tx).QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum payment amounts: %w", err)
	}

	total, err := pgNumericToInt64(sum)
	if err != nil {
		return 0, fmt.Errorf("sum payment amounts: %w", err)
	}
	return total, nil
}

// ApproveStaleDrafts bulk-transitions old drafts to Pending
func (r *PaymentRepository) ApproveStaleDrafts(ctx context.Context, tx ports.DBTX, cutoff, approvedAt, releasedAt time.Time) (int64, error) {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE payments
		SET status = $1, approved_at = $2, released_at = $3, updated_at = $2
		WHERE status = $4 AND created_at < $5`,
		string(models.PaymentStatusPending), approvedAt, releasedAt,
		string(models.PaymentStatusDraft), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("approve stale drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUserIDsWithPendingTotalAtLeast returns users whose pending total meets the threshold
func (r *PaymentRepository) ListUserIDsWithPendingTotalAtLeast(ctx context.Context, tx ports.DBTX, minTotal int64) ([]string, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT user_id FROM payments
		WHERE status = $1
		GROUP BY user_id
		HAVING SUM(amount) >= $2
		ORDER BY user_id`,
		string(models.PaymentStatusPending), minTotal)
	if err != nil {
		return nil, fmt.Errorf("list users with pending total: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users with pending total: %w", err)
	}
	return userIDs, nil
}

// ListReleasable returns the user's pending payments past their release date
func (r *PaymentRepository) ListReleasable(ctx context.Context, tx ports.DBTX, userID string, asOf time.Time) ([]*models.Payment, error) {
	rows, err := r.q(tx).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE user_id = $1 AND status = $2 AND released_at <= $3
		 ORDER BY created_at, id`,
		userID, string(models.PaymentStatusPending), asOf)
	if err != nil {
		return nil, fmt.Errorf("list releasable payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

// ClaimForPayout atomically marks the captured rows Paid and assigns the payout.
// The status predicate makes the claim a no-op for rows that were canceled or
// otherwise moved out of Pending after selection.
func (r *PaymentRepository) ClaimForPayout(ctx context.Context, tx ports.DBTX, ids []uuid.UUID, payoutID uuid.UUID, paidAt time.Time) (int64, error) {
	tag, err := r.q(tx).Exec(ctx, `
		UPDATE payments
		SET status = $1, payout_id = $2, paid_at = $3, updated_at = $3
		WHERE id = ANY($4) AND status = $5`,
		string(models.PaymentStatusPaid), payoutID, paidAt,
		ids, string(models.PaymentStatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("claim payments for payout: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanPayment reads a payment from a single-row query
func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		p           models.Payment
		status      string
		description pgtype.Text
		createdBy   pgtype.Text
		updatedBy   pgtype.Text
		externalID  pgtype.Text
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &description, &status, &p.OriginalAmount,
		&p.CreatedAt, &p.UpdatedAt, &p.ApprovedAt, &p.ReleasedAt, &p.PaidAt, &p.CancelledAt,
		&createdBy, &updatedBy, &externalID, &p.PayoutID,
	)
	if err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	p.Description = textValue(description)
	p.CreatedBy = textValue(createdBy)
	p.UpdatedBy = textValue(updatedBy)
	p.ExternalID = textValue(externalID)
	return &p, nil
}

// collectPayments reads all payments from a multi-row query
func collectPayments(rows pgx.Rows) ([]*models.Payment, error) {
	var payments []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read payments: %w", err)
	}
	return payments, nil
}

// statusStrings converts statuses to their text representation for ANY() filters
func statusStrings(statuses []models.PaymentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
