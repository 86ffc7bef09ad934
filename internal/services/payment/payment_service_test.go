package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
	"github.com/crowdcraft/payments/internal/testutil/fixtures"
	"github.com/crowdcraft/payments/internal/testutil/mocks"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type serviceMocks struct {
	db       *mocks.MockDBPort
	payments *mocks.MockPaymentRepository
	accounts *mocks.MockPaymentAccountRepository
	gateway  *mocks.MockStripeGateway
	logger   *mocks.MockLogger
}

func newTestService(t *testing.T) (*Service, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		db:       &mocks.MockDBPort{},
		payments: &mocks.MockPaymentRepository{},
		accounts: &mocks.MockPaymentAccountRepository{},
		gateway:  &mocks.MockStripeGateway{},
		logger:   mocks.NewMockLogger(),
	}
	cfg := DefaultConfig()
	cfg.StripeRefreshURL = "https://app.example.com/payout/refresh"
	cfg.StripeReturnURL = "https://app.example.com/payout/return"
	svc := NewService(m.db, m.payments, m.accounts, m.gateway, m.logger, cfg).
		WithClock(func() time.Time { return testNow })
	return svc, m
}

func TestCreatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft payment for client", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("Create", ctx, nil, mock.AnythingOfType("*models.Payment")).Return(nil)

		payment, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			UserID:      "worker-7",
			Amount:      2500,
			Description: "logo design",
			ExternalID:  "task-31",
		}, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusDraft, payment.Status)
		assert.Equal(t, int64(2500), payment.Amount)
		assert.Equal(t, int64(2500), payment.OriginalAmount)
		assert.Equal(t, "acme-ops", payment.CreatedBy)
		assert.Equal(t, testNow, payment.CreatedAt)
		assert.Nil(t, payment.ApprovedAt)
		m.payments.AssertExpectations(t)
	})

	t.Run("allows service accounts", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("Create", ctx, nil, mock.Anything).Return(nil)

		_, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			UserID: "worker-7", Amount: 100,
		}, fixtures.ServiceActor())

		require.NoError(t, err)
	})

	t.Run("denies workers", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			UserID: "worker-7", Amount: 100,
		}, fixtures.WorkerActor("worker-7"))

		assert.True(t, domain.IsAuthError(err))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			UserID: "worker-7", Amount: 0,
		}, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
	})

	t.Run("rejects missing user id", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			Amount: 100,
		}, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodeValidationFailed, domain.GetErrorCode(err))
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("Create", ctx, nil, mock.Anything).Return(errors.New("connection refused"))

		_, err := svc.CreatePayment(ctx, serviceports.CreatePaymentRequest{
			UserID: "worker-7", Amount: 100,
		}, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))
	})
}

func TestApprovePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps approval and release date", func(t *testing.T) {
		svc, m := newTestService(t)
		draft := fixtures.DraftPayment("worker-7", 2500)
		m.payments.On("GetByID", ctx, nil, draft.ID).Return(draft, nil)
		m.payments.On("Update", ctx, nil, draft, models.PaymentStatusDraft).Return(true, nil)

		payment, err := svc.ApprovePayment(ctx, draft.ID, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		require.NotNil(t, payment.ApprovedAt)
		assert.Equal(t, testNow, *payment.ApprovedAt)
		require.NotNil(t, payment.ReleasedAt)
		assert.Equal(t, testNow.Add(15*24*time.Hour), *payment.ReleasedAt)
		assert.Equal(t, "acme-ops", payment.UpdatedBy)
	})

	t.Run("denies non-clients", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.ApprovePayment(ctx, uuid.New(), fixtures.WorkerActor("worker-7"))

		assert.True(t, domain.IsAuthError(err))
	})

	t.Run("returns not found for missing payment", func(t *testing.T) {
		svc, m := newTestService(t)
		id := uuid.New()
		m.payments.On("GetByID", ctx, nil, id).Return(nil, nil)

		_, err := svc.ApprovePayment(ctx, id, fixtures.ClientActor())

		assert.True(t, domain.IsNotFoundError(err))
	})

	t.Run("rejects non-draft payment", func(t *testing.T) {
		svc, m := newTestService(t)
		pending := fixtures.PendingPayment("worker-7", 2500, testNow)
		m.payments.On("GetByID", ctx, nil, pending.ID).Return(pending, nil)

		_, err := svc.ApprovePayment(ctx, pending.ID, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodePaymentInvalidState, domain.GetErrorCode(err))
	})

	t.Run("lost race surfaces as invalid state", func(t *testing.T) {
		svc, m := newTestService(t)
		draft := fixtures.DraftPayment("worker-7", 2500)
		m.payments.On("GetByID", ctx, nil, draft.ID).Return(draft, nil)
		m.payments.On("Update", ctx, nil, draft, models.PaymentStatusDraft).Return(false, nil)

		_, err := svc.ApprovePayment(ctx, draft.ID, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodePaymentInvalidState, domain.GetErrorCode(err))
	})
}

func TestUpdatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrites amount and description", func(t *testing.T) {
		svc, m := newTestService(t)
		draft := fixtures.DraftPayment("worker-7", 2500)
		m.payments.On("GetByID", ctx, nil, draft.ID).Return(draft, nil)
		m.payments.On("Update", ctx, nil, draft, models.PaymentStatusDraft).Return(true, nil)

		payment, err := svc.UpdatePayment(ctx, serviceports.UpdatePaymentRequest{
			ID: draft.ID, Amount: 3000, Description: "logo design, revised",
		}, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, int64(3000), payment.Amount)
		assert.Equal(t, int64(2500), payment.OriginalAmount)
		assert.Equal(t, models.PaymentStatusDraft, payment.Status)
		assert.Nil(t, payment.ApprovedAt)
	})

	t.Run("folds approval into the update", func(t *testing.T) {
		svc, m := newTestService(t)
		draft := fixtures.DraftPayment("worker-7", 2500)
		m.payments.On("GetByID", ctx, nil, draft.ID).Return(draft, nil)
		m.payments.On("Update", ctx, nil, draft, models.PaymentStatusDraft).Return(true, nil)

		payment, err := svc.UpdatePayment(ctx, serviceports.UpdatePaymentRequest{
			ID: draft.ID, Amount: 3000, Approve: true,
		}, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, payment.Status)
		require.NotNil(t, payment.ReleasedAt)
		assert.Equal(t, testNow.Add(15*24*time.Hour), *payment.ReleasedAt)
	})

	t.Run("rejects updates to non-draft payments", func(t *testing.T) {
		svc, m := newTestService(t)
		pending := fixtures.PendingPayment("worker-7", 2500, testNow)
		m.payments.On("GetByID", ctx, nil, pending.ID).Return(pending, nil)

		_, err := svc.UpdatePayment(ctx, serviceports.UpdatePaymentRequest{
			ID: pending.ID, Amount: 3000,
		}, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodePaymentInvalidState, domain.GetErrorCode(err))
	})
}

func TestCancelPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels draft payment", func(t *testing.T) {
		svc, m := newTestService(t)
		draft := fixtures.DraftPayment("worker-7", 2500)
		m.payments.On("GetByID", ctx, nil, draft.ID).Return(draft, nil)
		m.payments.On("Update", ctx, nil, draft, models.PaymentStatusDraft).Return(true, nil)

		payment, err := svc.CancelPayment(ctx, draft.ID, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCanceled, payment.Status)
		require.NotNil(t, payment.CancelledAt)
		assert.Equal(t, testNow, *payment.CancelledAt)
	})

	t.Run("cancels pending payment", func(t *testing.T) {
		svc, m := newTestService(t)
		pending := fixtures.PendingPayment("worker-7", 2500, testNow.Add(24*time.Hour))
		m.payments.On("GetByID", ctx, nil, pending.ID).Return(pending, nil)
		m.payments.On("Update", ctx, nil, pending, models.PaymentStatusPending).Return(true, nil)

		payment, err := svc.CancelPayment(ctx, pending.ID, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCanceled, payment.Status)
	})

	t.Run("rejects canceling paid payment", func(t *testing.T) {
		svc, m := newTestService(t)
		paid := fixtures.PendingPayment("worker-7", 2500, testNow)
		paid.Status = models.PaymentStatusPaid
		m.payments.On("GetByID", ctx, nil, paid.ID).Return(paid, nil)

		_, err := svc.CancelPayment(ctx, paid.ID, fixtures.ClientActor())

		assert.Equal(t, domain.ErrorCodePaymentInvalidState, domain.GetErrorCode(err))
	})
}

func TestGetPaymentsForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("returns pending and paid payments", func(t *testing.T) {
		svc, m := newTestService(t)
		pending := fixtures.PendingPayment("worker-7", 2500, testNow)
		m.payments.On("ListForUser", ctx, nil, "worker-7",
			[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusPaid},
			int32(10), int32(0)).Return([]*models.Payment{pending}, nil)

		details, err := svc.GetPaymentsForUser(ctx, "worker-7", 1, 0, fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, pending.ID, details[0].ID)
		assert.Equal(t, "Pending", details[0].Status)
		require.NotNil(t, details[0].ApprovedAt)
		assert.Nil(t, details[0].PaidAt)
	})

	t.Run("applies pagination offsets", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("ListForUser", ctx, nil, "worker-7", mock.Anything,
			int32(5), int32(10)).Return([]*models.Payment{}, nil)

		_, err := svc.GetPaymentsForUser(ctx, "worker-7", 3, 5, fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		m.payments.AssertExpectations(t)
	})

	t.Run("client may view any user", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("ListForUser", ctx, nil, "worker-7", mock.Anything,
			mock.Anything, mock.Anything).Return([]*models.Payment{}, nil)

		_, err := svc.GetPaymentsForUser(ctx, "worker-7", 1, 10, fixtures.ClientActor())

		require.NoError(t, err)
	})

	t.Run("worker may not view another user", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetPaymentsForUser(ctx, "worker-7", 1, 10, fixtures.WorkerActor("worker-8"))

		assert.True(t, domain.IsAuthError(err))
	})
}

func TestGetReferencePayments(t *testing.T) {
	ctx := context.Background()

	t.Run("client sees all matching payments", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("ListByExternalIDs", ctx, nil, []string{"task-31"}, "",
			mock.Anything).Return([]*models.Payment{}, nil)

		_, err := svc.GetReferencePayments(ctx, []string{"task-31"}, fixtures.ClientActor())

		require.NoError(t, err)
		m.payments.AssertExpectations(t)
	})

	t.Run("worker results are scoped to own payments", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("ListByExternalIDs", ctx, nil, []string{"task-31"}, "worker-7",
			mock.Anything).Return([]*models.Payment{}, nil)

		_, err := svc.GetReferencePayments(ctx, []string{"task-31"}, fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		m.payments.AssertExpectations(t)
	})
}

func TestGetPaymentStats(t *testing.T) {
	ctx := context.Background()

	t.Run("sums per status inside one snapshot", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("SumAmountByStatus", ctx, nil, "worker-7", models.PaymentStatusDraft).Return(int64(1000), nil)
		m.payments.On("SumAmountByStatus", ctx, nil, "worker-7", models.PaymentStatusPending).Return(int64(2500), nil)
		m.payments.On("SumAmountByStatus", ctx, nil, "worker-7", models.PaymentStatusPaid).Return(int64(9000), nil)

		stats, err := svc.GetPaymentStats(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		assert.Equal(t, int64(1000), stats.DraftPaymentsAmount)
		assert.Equal(t, int64(2500), stats.PendingPaymentsAmount)
		assert.Equal(t, int64(9000), stats.TotalEarnings)
		assert.Equal(t, 1, m.db.ReadOnlyTxCalls)
	})

	t.Run("worker may not view another user's stats", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetPaymentStats(ctx, "worker-7", fixtures.WorkerActor("worker-8"))

		assert.True(t, domain.IsAuthError(err))
	})
}

func TestGetClientPaymentStats(t *testing.T) {
	ctx := context.Background()

	t.Run("sums all paid payments", func(t *testing.T) {
		svc, m := newTestService(t)
		m.payments.On("SumAmountByStatus", ctx, nil, "", models.PaymentStatusPaid).Return(int64(123456), nil)

		stats, err := svc.GetClientPaymentStats(ctx, fixtures.ClientActor())

		require.NoError(t, err)
		assert.Equal(t, int64(123456), stats.TotalExpenses)
	})

	t.Run("denies workers", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetClientPaymentStats(ctx, fixtures.WorkerActor("worker-7"))

		assert.True(t, domain.IsAuthError(err))
	})
}

func TestGetPaymentAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns connected account without gateway call", func(t *testing.T) {
		svc, m := newTestService(t)
		account := fixtures.ConnectedAccount("worker-7")
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(account, nil)

		got, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		assert.Equal(t, account, got)
		m.gateway.AssertNotCalled(t, "RetrieveAccount", mock.Anything, mock.Anything)
	})

	t.Run("promotes account when payouts become enabled", func(t *testing.T) {
		svc, m := newTestService(t)
		account := fixtures.CreatedAccount("worker-7")
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(account, nil)
		m.gateway.On("RetrieveAccount", ctx, account.StripeAccountID).
			Return(&ports.ConnectAccount{ID: account.StripeAccountID, PayoutsEnabled: true}, nil)
		m.accounts.On("Update", ctx, nil, account).Return(nil)

		got, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		assert.Equal(t, models.AccountStatusConnected, got.Status)
		require.NotNil(t, got.ConnectedAt)
		assert.Equal(t, testNow, *got.ConnectedAt)
	})

	t.Run("fails while onboarding is incomplete", func(t *testing.T) {
		svc, m := newTestService(t)
		account := fixtures.CreatedAccount("worker-7")
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(account, nil)
		m.gateway.On("RetrieveAccount", ctx, account.StripeAccountID).
			Return(&ports.ConnectAccount{ID: account.StripeAccountID, PayoutsEnabled: false}, nil)

		_, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.Error(t, err)
		m.accounts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wraps gateway failures", func(t *testing.T) {
		svc, m := newTestService(t)
		account := fixtures.CreatedAccount("worker-7")
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(account, nil)
		m.gateway.On("RetrieveAccount", ctx, account.StripeAccountID).
			Return(nil, errors.New("stripe unavailable"))

		_, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		assert.Equal(t, domain.ErrorCodeGatewayError, domain.GetErrorCode(err))
	})

	t.Run("returns not found when no account exists", func(t *testing.T) {
		svc, m := newTestService(t)
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(nil, nil)

		_, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		assert.True(t, domain.IsNotFoundError(err))
	})

	t.Run("even clients may not view another user's account", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetPaymentAccount(ctx, "worker-7", fixtures.ClientActor())

		assert.True(t, domain.IsAuthError(err))
	})
}

func TestGetPaymentAccountURL(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and link on first call", func(t *testing.T) {
		svc, m := newTestService(t)
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(nil, nil)
		m.gateway.On("CreateExpressAccount", ctx).
			Return(&ports.ConnectAccount{ID: "acct_new"}, nil)
		m.accounts.On("Create", ctx, nil, mock.MatchedBy(func(a *models.PaymentAccount) bool {
			return a.UserID == "worker-7" && a.StripeAccountID == "acct_new" &&
				a.Status == models.AccountStatusCreated
		})).Return(nil)
		m.gateway.On("CreateOnboardingLink", ctx, "acct_new",
			"https://app.example.com/payout/refresh", "https://app.example.com/payout/return").
			Return(&ports.AccountLink{URL: "https://connect.stripe.com/setup/s/abc"}, nil)

		resp, err := svc.GetPaymentAccountURL(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		assert.Equal(t, "https://connect.stripe.com/setup/s/abc", resp.URL)
	})

	t.Run("reuses existing unconnected account", func(t *testing.T) {
		svc, m := newTestService(t)
		account := fixtures.CreatedAccount("worker-7")
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(account, nil)
		m.gateway.On("CreateOnboardingLink", ctx, account.StripeAccountID,
			mock.Anything, mock.Anything).
			Return(&ports.AccountLink{URL: "https://connect.stripe.com/setup/s/xyz"}, nil)

		resp, err := svc.GetPaymentAccountURL(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		require.NoError(t, err)
		assert.Equal(t, "https://connect.stripe.com/setup/s/xyz", resp.URL)
		m.gateway.AssertNotCalled(t, "CreateExpressAccount", mock.Anything)
	})

	t.Run("rejects already connected account", func(t *testing.T) {
		svc, m := newTestService(t)
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").
			Return(fixtures.ConnectedAccount("worker-7"), nil)

		_, err := svc.GetPaymentAccountURL(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		assert.Equal(t, domain.ErrorCodeAccountAlreadyConnected, domain.GetErrorCode(err))
	})

	t.Run("wraps gateway failure creating account", func(t *testing.T) {
		svc, m := newTestService(t)
		m.accounts.On("GetByUserID", ctx, nil, "worker-7").Return(nil, nil)
		m.gateway.On("CreateExpressAccount", ctx).Return(nil, errors.New("stripe unavailable"))

		_, err := svc.GetPaymentAccountURL(ctx, "worker-7", fixtures.WorkerActor("worker-7"))

		assert.Equal(t, domain.ErrorCodeGatewayError, domain.GetErrorCode(err))
		m.accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("denies other users", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.GetPaymentAccountURL(ctx, "worker-7", fixtures.WorkerActor("worker-8"))

		assert.True(t, domain.IsAuthError(err))
	})
}
