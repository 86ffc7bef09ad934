package payment

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowdcraft/payments/internal/auth"
	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
	"github.com/crowdcraft/payments/internal/testutil/fixtures"
	"github.com/crowdcraft/payments/internal/testutil/mocks"
)

func newTestHandler(t *testing.T) (*http.ServeMux, *mocks.MockPaymentLifecycleService) {
	t.Helper()
	service := &mocks.MockPaymentLifecycleService{}
	handler := NewHandler(service, zap.NewNop())
	mux := http.NewServeMux()
	handler.Register(mux)
	return mux, service
}

// doRequest performs a request with the actor injected, as the auth
// middleware would
func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string, actor domain.Actor) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(auth.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreatePaymentEndpoint(t *testing.T) {
	t.Run("returns 201 with the created payment", func(t *testing.T) {
		mux, service := newTestHandler(t)
		payment := fixtures.DraftPayment("worker-7", 2500)
		service.On("CreatePayment", mock.Anything,
			serviceports.CreatePaymentRequest{UserID: "worker-7", Amount: 2500, Description: "logo design"},
			fixtures.ClientActor()).Return(payment, nil)

		rec := doRequest(t, mux, http.MethodPost, "/payments",
			`{"userId":"worker-7","amount":2500,"description":"logo design"}`,
			fixtures.ClientActor())

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), payment.ID.String())
	})

	t.Run("returns 400 on malformed body", func(t *testing.T) {
		mux, _ := newTestHandler(t)

		rec := doRequest(t, mux, http.MethodPost, "/payments", `{not-json`, fixtures.ClientActor())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
	})

	t.Run("maps access denied to 403", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied, "only clients can create payments"))

		rec := doRequest(t, mux, http.MethodPost, "/payments",
			`{"userId":"worker-7","amount":2500}`, fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "AUTH_ACCESS_DENIED")
	})
}

func TestApprovePaymentEndpoint(t *testing.T) {
	t.Run("returns the approved payment", func(t *testing.T) {
		mux, service := newTestHandler(t)
		payment := fixtures.PendingPayment("worker-7", 2500, time.Now().UTC())
		service.On("ApprovePayment", mock.Anything, payment.ID, fixtures.ClientActor()).
			Return(payment, nil)

		rec := doRequest(t, mux, http.MethodPost, "/payments/"+payment.ID.String()+"/approve", "",
			fixtures.ClientActor())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Pending")
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		mux, _ := newTestHandler(t)

		rec := doRequest(t, mux, http.MethodPost, "/payments/not-a-uuid/approve", "", fixtures.ClientActor())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		mux, service := newTestHandler(t)
		id := uuid.New()
		service.On("ApprovePayment", mock.Anything, id, mock.Anything).
			Return(nil, domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found"))

		rec := doRequest(t, mux, http.MethodPost, "/payments/"+id.String()+"/approve", "",
			fixtures.ClientActor())

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("maps invalid state to 409", func(t *testing.T) {
		mux, service := newTestHandler(t)
		id := uuid.New()
		service.On("ApprovePayment", mock.Anything, id, mock.Anything).
			Return(nil, domain.NewDomainError(domain.ErrorCodePaymentInvalidState, "payment in this state cannot be approved"))

		rec := doRequest(t, mux, http.MethodPost, "/payments/"+id.String()+"/approve", "",
			fixtures.ClientActor())

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestCancelPaymentEndpoint(t *testing.T) {
	mux, service := newTestHandler(t)
	payment := fixtures.DraftPayment("worker-7", 2500)
	payment.Status = models.PaymentStatusCanceled
	service.On("CancelPayment", mock.Anything, payment.ID, fixtures.ClientActor()).
		Return(payment, nil)

	rec := doRequest(t, mux, http.MethodPost, "/payments/"+payment.ID.String()+"/cancel", "",
		fixtures.ClientActor())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Canceled")
}

func TestUpdatePaymentEndpoint(t *testing.T) {
	mux, service := newTestHandler(t)
	payment := fixtures.DraftPayment("worker-7", 3000)
	service.On("UpdatePayment", mock.Anything,
		serviceports.UpdatePaymentRequest{ID: payment.ID, Amount: 3000, Description: "revised", Approve: true},
		fixtures.ClientActor()).Return(payment, nil)

	rec := doRequest(t, mux, http.MethodPut, "/payments/"+payment.ID.String(),
		`{"amount":3000,"description":"revised","approve":true}`, fixtures.ClientActor())

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestGetPaymentsForUserEndpoint(t *testing.T) {
	t.Run("passes pagination through", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentsForUser", mock.Anything, "worker-7", 2, 5, mock.Anything).
			Return([]serviceports.PaymentDetails{}, nil)

		rec := doRequest(t, mux, http.MethodGet, "/users/worker-7/payments?page=2&perPage=5", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("defaults page and perPage", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentsForUser", mock.Anything, "worker-7", 1, 10, mock.Anything).
			Return([]serviceports.PaymentDetails{}, nil)

		rec := doRequest(t, mux, http.MethodGet, "/users/worker-7/payments", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})
}

func TestGetReferencePaymentsEndpoint(t *testing.T) {
	t.Run("splits externalIds", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetReferencePayments", mock.Anything, []string{"task-1", "task-2"}, mock.Anything).
			Return([]serviceports.PaymentDetails{}, nil)

		rec := doRequest(t, mux, http.MethodGet, "/payments/reference?externalIds=task-1,task-2", "",
			fixtures.ClientActor())

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("requires externalIds", func(t *testing.T) {
		mux, _ := newTestHandler(t)

		rec := doRequest(t, mux, http.MethodGet, "/payments/reference", "", fixtures.ClientActor())

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsEndpoints(t *testing.T) {
	t.Run("user stats", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentStats", mock.Anything, "worker-7", mock.Anything).
			Return(&serviceports.PaymentStats{DraftPaymentsAmount: 100, PendingPaymentsAmount: 200, TotalEarnings: 300}, nil)

		rec := doRequest(t, mux, http.MethodGet, "/users/worker-7/payments/stats", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"totalEarnings":300`)
	})

	t.Run("client stats", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetClientPaymentStats", mock.Anything, mock.Anything).
			Return(&serviceports.ClientPaymentStats{TotalExpenses: 999}, nil)

		rec := doRequest(t, mux, http.MethodGet, "/payments/stats", "", fixtures.ClientActor())

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"totalExpenses":999`)
	})
}

func TestPaymentAccountEndpoints(t *testing.T) {
	t.Run("returns account", func(t *testing.T) {
		mux, service := newTestHandler(t)
		account := fixtures.ConnectedAccount("worker-7")
		service.On("GetPaymentAccount", mock.Anything, "worker-7", mock.Anything).
			Return(account, nil)

		rec := doRequest(t, mux, http.MethodGet, "/users/worker-7/payment-account", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), account.StripeAccountID)
	})

	t.Run("returns onboarding url", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentAccountURL", mock.Anything, "worker-7", mock.Anything).
			Return(&serviceports.CreatePaymentAccountResponse{URL: "https://connect.stripe.com/setup/s/abc"}, nil)

		rec := doRequest(t, mux, http.MethodPost, "/users/worker-7/payment-account/url", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "connect.stripe.com")
	})

	t.Run("maps already connected to 409", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentAccountURL", mock.Anything, "worker-7", mock.Anything).
			Return(nil, domain.NewDomainError(domain.ErrorCodeAccountAlreadyConnected, "payment account is already connected"))

		rec := doRequest(t, mux, http.MethodPost, "/users/worker-7/payment-account/url", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("maps gateway error to 502", func(t *testing.T) {
		mux, service := newTestHandler(t)
		service.On("GetPaymentAccount", mock.Anything, "worker-7", mock.Anything).
			Return(nil, domain.WrapError(domain.ErrorCodeGatewayError, "error fetching stripe account", assert.AnError))

		rec := doRequest(t, mux, http.MethodGet, "/users/worker-7/payment-account", "",
			fixtures.WorkerActor("worker-7"))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestMissingActor(t *testing.T) {
	mux, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")
}
