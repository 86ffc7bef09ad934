package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/crowdcraft/payments/internal/domain/ports"
)

// MockStripeGateway mocks ports.StripeGateway
type MockStripeGateway struct {
	mock.Mock
}

func (m *MockStripeGateway) CreateExpressAccount(ctx context.Context) (*ports.ConnectAccount, error) {
	args := m.Called(ctx)
	if a := args.Get(0); a != nil {
		return a.(*ports.ConnectAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStripeGateway) RetrieveAccount(ctx context.Context, accountID string) (*ports.ConnectAccount, error) {
	args := m.Called(ctx, accountID)
	if a := args.Get(0); a != nil {
		return a.(*ports.ConnectAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStripeGateway) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*ports.AccountLink, error) {
	args := m.Called(ctx, accountID, refreshURL, returnURL)
	if l := args.Get(0); l != nil {
		return l.(*ports.AccountLink), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStripeGateway) CreateTransfer(ctx context.Context, amount int64, currency, destinationAccountID, idempotencyKey string) (*ports.Transfer, error) {
	args := m.Called(ctx, amount, currency, destinationAccountID, idempotencyKey)
	if t := args.Get(0); t != nil {
		return t.(*ports.Transfer), args.Error(1)
	}
	return nil, args.Error(1)
}
