package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
)

// PayoutRepository implements ports.PayoutRepository using pgx
type PayoutRepository struct {
	db ports.DBPort
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db ports.DBPort) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) q(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// Create inserts a new payout
func (r *PayoutRepository) Create(ctx context.Context, tx ports.DBTX, p *models.Payout) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO payouts (id, payment_account_id, created_at, amount, status)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.PaymentAccountID, p.CreatedAt, p.Amount, string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

// Update persists the payout's status and transfer reference
func (r *PayoutRepository) Update(ctx context.Context, tx ports.DBTX, p *models.Payout) error {
	_, err := r.q(tx).Exec(ctx, `
		UPDATE payouts SET status = $2, transfer_id = $3 WHERE id = $1`,
		p.ID, string(p.Status), nullText(p.TransferID),
	)
	if err != nil {
		return fmt.Errorf("update payout: %w", err)
	}
	return nil
}

// ListByStatus returns all payouts in the given status, oldest first.
// Includes payouts left over from prior failed runs so transfers are retried.
func (r *PayoutRepository) ListByStatus(ctx context.Context, tx ports.DBTX, status models.PayoutStatus) ([]*models.Payout, error) {
	rows, err := r.q(tx).Query(ctx, `
		SELECT id, payment_account_id, created_at, amount, status, transfer_id
		FROM payouts WHERE status = $1
		ORDER BY created_at, id`,
		string(status))
	if err != nil {
		return nil, fmt.Errorf("list payouts by status: %w", err)
	}
	defer rows.Close()

	var payouts []*models.Payout
	for rows.Next() {
		var (
			p          models.Payout
			st         string
			transferID pgtype.Text
		)
		if err := rows.Scan(&p.ID, &p.PaymentAccountID, &p.CreatedAt, &p.Amount, &st, &transferID); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		p.Status = models.PayoutStatus(st)
		p.TransferID = textValue(transferID)
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read payouts: %w", err)
	}
	return payouts, nil
}
