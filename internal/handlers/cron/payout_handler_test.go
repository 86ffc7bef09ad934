package cron

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/crowdcraft/payments/internal/services/ports"
)

// stubPayoutService returns a canned batch result
type stubPayoutService struct {
	result *ports.PayoutRunResult
	calls  int
}

func (s *stubPayoutService) Run(ctx context.Context) *ports.PayoutRunResult {
	s.calls++
	return s.result
}

func TestRunPayouts(t *testing.T) {
	t.Run("returns 200 on a clean run", func(t *testing.T) {
		service := &stubPayoutService{result: &ports.PayoutRunResult{
			AutoApproved:     3,
			PayoutsCreated:   2,
			TransfersSettled: 2,
		}}
		handler := NewPayoutHandler(service, zap.NewNop(), "cron-secret")

		req := httptest.NewRequest(http.MethodPost, "/cron/run-payouts", nil)
		req.Header.Set("X-Cron-Secret", "cron-secret")
		rec := httptest.NewRecorder()

		handler.RunPayouts(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"autoApproved":3`)
		assert.Contains(t, rec.Body.String(), `"payoutsCreated":2`)
		assert.Equal(t, 1, service.calls)
	})

	t.Run("returns 206 when some units failed", func(t *testing.T) {
		service := &stubPayoutService{result: &ports.PayoutRunResult{
			PayoutsCreated: 1,
			Errors:         []ports.PayoutError{{UserID: "worker-7", Error: "connection refused"}},
		}}
		handler := NewPayoutHandler(service, zap.NewNop(), "cron-secret")

		req := httptest.NewRequest(http.MethodPost, "/cron/run-payouts", nil)
		req.Header.Set("Authorization", "Bearer cron-secret")
		rec := httptest.NewRecorder()

		handler.RunPayouts(rec, req)

		assert.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
	})

	t.Run("rejects requests without the secret", func(t *testing.T) {
		service := &stubPayoutService{result: &ports.PayoutRunResult{}}
		handler := NewPayoutHandler(service, zap.NewNop(), "cron-secret")

		req := httptest.NewRequest(http.MethodPost, "/cron/run-payouts", nil)
		rec := httptest.NewRecorder()

		handler.RunPayouts(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 0, service.calls)
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		service := &stubPayoutService{result: &ports.PayoutRunResult{}}
		handler := NewPayoutHandler(service, zap.NewNop(), "cron-secret")

		req := httptest.NewRequest(http.MethodPost, "/cron/run-payouts", nil)
		req.Header.Set("X-Cron-Secret", "guess")
		rec := httptest.NewRecorder()

		handler.RunPayouts(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects non-POST methods", func(t *testing.T) {
		service := &stubPayoutService{result: &ports.PayoutRunResult{}}
		handler := NewPayoutHandler(service, zap.NewNop(), "cron-secret")

		req := httptest.NewRequest(http.MethodGet, "/cron/run-payouts", nil)
		req.Header.Set("X-Cron-Secret", "cron-secret")
		rec := httptest.NewRecorder()

		handler.RunPayouts(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCronHealthCheck(t *testing.T) {
	handler := NewPayoutHandler(&stubPayoutService{}, zap.NewNop(), "cron-secret")

	req := httptest.NewRequest(http.MethodGet, "/cron/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
