package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
)

// MockPaymentRepository mocks ports.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx ports.DBTX, p *models.Payment) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, tx ports.DBTX, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, tx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, tx ports.DBTX, p *models.Payment, expected models.PaymentStatus) (bool, error) {
	args := m.Called(ctx, tx, p, expected)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) ListForUser(ctx context.Context, tx ports.DBTX, userID string, statuses []models.PaymentStatus, limit, offset int32) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, userID, statuses, limit, offset)
	if p := args.Get(0); p != nil {
		return p.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) ListByExternalIDs(ctx context.Context, tx ports.DBTX, externalIDs []string, userID string, statuses []models.PaymentStatus) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, externalIDs, userID, statuses)
	if p := args.Get(0); p != nil {
		return p.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) SumAmountByStatus(ctx context.Context, tx ports.DBTX, userID string, status models.PaymentStatus) (int64, error) {
	args := m.Called(ctx, tx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) ApproveStaleDrafts(ctx context.Context, tx ports.DBTX, cutoff, approvedAt, releasedAt time.Time) (int64, error) {
	args := m.Called(ctx, tx, cutoff, approvedAt, releasedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) ListUserIDsWithPendingTotalAtLeast(ctx context.Context, tx ports.DBTX, minTotal int64) ([]string, error) {
	args := m.Called(ctx, tx, minTotal)
	if ids := args.Get(0); ids != nil {
		return ids.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) ListReleasable(ctx context.Context, tx ports.DBTX, userID string, asOf time.Time) ([]*models.Payment, error) {
	args := m.Called(ctx, tx, userID, asOf)
	if p := args.Get(0); p != nil {
		return p.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRepository) ClaimForPayout(ctx context.Context, tx ports.DBTX, ids []uuid.UUID, payoutID uuid.UUID, paidAt time.Time) (int64, error) {
	args := m.Called(ctx, tx, ids, payoutID, paidAt)
	return args.Get(0).(int64), args.Error(1)
}

// MockPaymentAccountRepository mocks ports.PaymentAccountRepository
type MockPaymentAccountRepository struct {
	mock.Mock
}

func (m *MockPaymentAccountRepository) Create(ctx context.Context, tx ports.DBTX, account *models.PaymentAccount) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockPaymentAccountRepository) Update(ctx context.Context, tx ports.DBTX, account *models.PaymentAccount) error {
	args := m.Called(ctx, tx, account)
	return args.Error(0)
}

func (m *MockPaymentAccountRepository) GetByID(ctx context.Context, tx ports.DBTX, id uuid.UUID) (*models.PaymentAccount, error) {
	args := m.Called(ctx, tx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.PaymentAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentAccountRepository) GetByUserID(ctx context.Context, tx ports.DBTX, userID string) (*models.PaymentAccount, error) {
	args := m.Called(ctx, tx, userID)
	if a := args.Get(0); a != nil {
		return a.(*models.PaymentAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentAccountRepository) GetConnectedByUserID(ctx context.Context, tx ports.DBTX, userID string) (*models.PaymentAccount, error) {
	args := m.Called(ctx, tx, userID)
	if a := args.Get(0); a != nil {
		return a.(*models.PaymentAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPayoutRepository mocks ports.PayoutRepository
type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, tx ports.DBTX, payout *models.Payout) error {
	args := m.Called(ctx, tx, payout)
	return args.Error(0)
}

func (m *MockPayoutRepository) Update(ctx context.Context, tx ports.DBTX, payout *models.Payout) error {
	args := m.Called(ctx, tx, payout)
	return args.Error(0)
}

func (m *MockPayoutRepository) ListByStatus(ctx context.Context, tx ports.DBTX, status models.PayoutStatus) ([]*models.Payout, error) {
	args := m.Called(ctx, tx, status)
	if p := args.Get(0); p != nil {
		return p.([]*models.Payout), args.Error(1)
	}
	return nil, args.Error(1)
}
