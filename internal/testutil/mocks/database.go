package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MockDBPort satisfies ports.DBPort for service tests. Transactional scopes
// run the callback with a nil pgx.Tx; repository mocks ignore the tx anyway.
type MockDBPort struct {
	TxCalls         int
	ReadOnlyTxCalls int

	// TxErr, when set, is returned without invoking the callback
	TxErr error
}

func (m *MockDBPort) GetDB() *pgxpool.Pool {
	return nil
}

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.TxCalls++
	if m.TxErr != nil {
		return m.TxErr
	}
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	m.ReadOnlyTxCalls++
	if m.TxErr != nil {
		return m.TxErr
	}
	return fn(ctx, nil)
}
