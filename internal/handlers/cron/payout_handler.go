package cron

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crowdcraft/payments/internal/services/ports"
)

// PayoutHandler handles cron job endpoints for the payout batch
type PayoutHandler struct {
	payoutService ports.PayoutService
	logger        *zap.Logger
	cronSecret    string // Secret token for authenticating cron requests
}

// NewPayoutHandler creates a new payout cron handler
func NewPayoutHandler(
	payoutService ports.PayoutService,
	logger *zap.Logger,
	cronSecret string,
) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		logger:        logger,
		cronSecret:    cronSecret,
	}
}

// RunPayoutsResponse represents the response from a payout batch run
type RunPayoutsResponse struct {
	Success          bool                `json:"success"`
	AutoApproved     int64               `json:"autoApproved"`
	PayoutsCreated   int                 `json:"payoutsCreated"`
	UsersSkipped     int                 `json:"usersSkipped"`
	TransfersSettled int                 `json:"transfersSettled"`
	Errors           []ports.PayoutError `json:"errors,omitempty"`
	ProcessedAt      string              `json:"processedAt"`
}

// RunPayouts handles the POST /cron/run-payouts endpoint, called by the
// scheduler to execute one payout batch
func (h *PayoutHandler) RunPayouts(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Payout cron job triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result := h.payoutService.Run(r.Context())

	resp := RunPayoutsResponse{
		Success:          !result.Failed(),
		AutoApproved:     result.AutoApproved,
		PayoutsCreated:   result.PayoutsCreated,
		UsersSkipped:     result.UsersSkipped,
		TransfersSettled: result.TransfersSettled,
		Errors:           result.Errors,
		ProcessedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Info("Payout batch completed",
		zap.Int64("auto_approved", result.AutoApproved),
		zap.Int("payouts_created", result.PayoutsCreated),
		zap.Int("transfers_settled", result.TransfersSettled),
		zap.Int("errors", len(result.Errors)),
	)

	w.Header().Set("Content-Type", "application/json")
	if resp.Success {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusPartialContent) // 206 indicates partial success
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// HealthCheck handles GET /cron/health for monitoring
func (h *PayoutHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// authenticateRequest verifies the cron request is authorized
func (h *PayoutHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	if secret := r.Header.Get("X-Cron-Secret"); secret == h.cronSecret {
		return true
	}

	if r.Header.Get("Authorization") == "Bearer "+h.cronSecret {
		return true
	}

	return false
}

// respondError sends an error response
func (h *PayoutHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	}); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
