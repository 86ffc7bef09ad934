package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
)

const accountColumns = `id, user_id, stripe_account_id, status, created_at, connected_at`

// PaymentAccountRepository implements ports.PaymentAccountRepository using pgx
type PaymentAccountRepository struct {
	db ports.DBPort
}

// NewPaymentAccountRepository creates a new payment account repository
func NewPaymentAccountRepository(db ports.DBPort) *PaymentAccountRepository {
	return &PaymentAccountRepository{db: db}
}

func (r *PaymentAccountRepository) q(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.db.GetDB()
}

// Create inserts a new payment account. The unique index on user_id enforces
// the one-account-per-user invariant at the database level.
func (r *PaymentAccountRepository) Create(ctx context.Context, tx ports.DBTX, a *models.PaymentAccount) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO payment_accounts (id, user_id, stripe_account_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.UserID, a.StripeAccountID, string(a.Status), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment account: %w", err)
	}
	return nil
}

// Update persists the account's status and connected timestamp
func (r *PaymentAccountRepository) Update(ctx context.Context, tx ports.DBTX, a *models.PaymentAccount) error {
	_, err := r.q(tx).Exec(ctx, `
		UPDATE payment_accounts SET status = $2, connected_at = $3 WHERE id = $1`,
		a.ID, string(a.Status), a.ConnectedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by id. Returns (nil, nil) when no row exists.
func (r *PaymentAccountRepository) GetByID(ctx context.Context, tx ports.DBTX, id uuid.UUID) (*models.PaymentAccount, error) {
	row := r.q(tx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE id = $1`, id)
	return scanAccountRow(row, "get payment account by id")
}

// GetByUserID retrieves the account owned by userID.
// Returns (nil, nil) when no row exists.
func (r *PaymentAccountRepository) GetByUserID(ctx context.Context, tx ports.DBTX, userID string) (*models.PaymentAccount, error) {
	row := r.q(tx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE user_id = $1`, userID)
	return scanAccountRow(row, "get payment account by user")
}

// GetConnectedByUserID retrieves the user's account only if it is Connected
func (r *PaymentAccountRepository) GetConnectedByUserID(ctx context.Context, tx ports.DBTX, userID string) (*models.PaymentAccount, error) {
	row := r.q(tx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM payment_accounts WHERE user_id = $1 AND status = $2`,
		userID, string(models.AccountStatusConnected))
	return scanAccountRow(row, "get connected payment account")
}

func scanAccountRow(row pgx.Row, op string) (*models.PaymentAccount, error) {
	var (
		a      models.PaymentAccount
		status string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.StripeAccountID, &status, &a.CreatedAt, &a.ConnectedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a.Status = models.PaymentAccountStatus(status)
	return &a, nil
}
