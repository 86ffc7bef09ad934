package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
)

// MockPaymentLifecycleService mocks serviceports.PaymentLifecycleService
type MockPaymentLifecycleService struct {
	mock.Mock
}

func (m *MockPaymentLifecycleService) CreatePayment(ctx context.Context, req serviceports.CreatePaymentRequest, actor domain.Actor) (*models.Payment, error) {
	args := m.Called(ctx, req, actor)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) UpdatePayment(ctx context.Context, req serviceports.UpdatePaymentRequest, actor domain.Actor) (*models.Payment, error) {
	args := m.Called(ctx, req, actor)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) ApprovePayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error) {
	args := m.Called(ctx, id, actor)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) CancelPayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error) {
	args := m.Called(ctx, id, actor)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetPaymentsForUser(ctx context.Context, userID string, page, perPage int, actor domain.Actor) ([]serviceports.PaymentDetails, error) {
	args := m.Called(ctx, userID, page, perPage, actor)
	if d := args.Get(0); d != nil {
		return d.([]serviceports.PaymentDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetReferencePayments(ctx context.Context, externalIDs []string, actor domain.Actor) ([]serviceports.PaymentDetails, error) {
	args := m.Called(ctx, externalIDs, actor)
	if d := args.Get(0); d != nil {
		return d.([]serviceports.PaymentDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetPaymentStats(ctx context.Context, userID string, actor domain.Actor) (*serviceports.PaymentStats, error) {
	args := m.Called(ctx, userID, actor)
	if s := args.Get(0); s != nil {
		return s.(*serviceports.PaymentStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetClientPaymentStats(ctx context.Context, actor domain.Actor) (*serviceports.ClientPaymentStats, error) {
	args := m.Called(ctx, actor)
	if s := args.Get(0); s != nil {
		return s.(*serviceports.ClientPaymentStats), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetPaymentAccount(ctx context.Context, userID string, actor domain.Actor) (*models.PaymentAccount, error) {
	args := m.Called(ctx, userID, actor)
	if a := args.Get(0); a != nil {
		return a.(*models.PaymentAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentLifecycleService) GetPaymentAccountURL(ctx context.Context, userID string, actor domain.Actor) (*serviceports.CreatePaymentAccountResponse, error) {
	args := m.Called(ctx, userID, actor)
	if r := args.Get(0); r != nil {
		return r.(*serviceports.CreatePaymentAccountResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
