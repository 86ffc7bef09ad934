package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crowdcraft/payments/internal/auth"
	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
)

// Handler exposes the payment lifecycle over JSON HTTP
type Handler struct {
	service serviceports.PaymentLifecycleService
	logger  *zap.Logger
}

// NewHandler creates a new payment HTTP handler
func NewHandler(service serviceports.PaymentLifecycleService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the payment routes on mux. All routes expect the
// authentication middleware to have populated the actor.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.CreatePayment)
	mux.HandleFunc("PUT /payments/{id}", h.UpdatePayment)
	mux.HandleFunc("POST /payments/{id}/approve", h.ApprovePayment)
	mux.HandleFunc("POST /payments/{id}/cancel", h.CancelPayment)
	mux.HandleFunc("GET /payments/reference", h.GetReferencePayments)
	mux.HandleFunc("GET /payments/stats", h.GetClientPaymentStats)
	mux.HandleFunc("GET /users/{userId}/payments", h.GetPaymentsForUser)
	mux.HandleFunc("GET /users/{userId}/payments/stats", h.GetPaymentStats)
	mux.HandleFunc("GET /users/{userId}/payment-account", h.GetPaymentAccount)
	mux.HandleFunc("POST /users/{userId}/payment-account/url", h.GetPaymentAccountURL)
}

// CreatePayment handles POST /payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	var req serviceports.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid request body"))
		return
	}

	payment, err := h.service.CreatePayment(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, payment)
}

// UpdatePayment handles PUT /payments/{id}
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid payment id"))
		return
	}

	var req serviceports.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid request body"))
		return
	}
	req.ID = id

	payment, err := h.service.UpdatePayment(r.Context(), req, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, payment)
}

// ApprovePayment handles POST /payments/{id}/approve
func (h *Handler) ApprovePayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApprovePayment)
}

// CancelPayment handles POST /payments/{id}/cancel
func (h *Handler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelPayment)
}

// GetPaymentsForUser handles GET /users/{userId}/payments
func (h *Handler) GetPaymentsForUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "perPage", 10)

	details, err := h.service.GetPaymentsForUser(r.Context(), r.PathValue("userId"), page, perPage, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"payments": details})
}

// GetReferencePayments handles GET /payments/reference?externalIds=a,b
func (h *Handler) GetReferencePayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	raw := r.URL.Query().Get("externalIds")
	if raw == "" {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "externalIds is required"))
		return
	}
	externalIDs := strings.Split(raw, ",")

	details, err := h.service.GetReferencePayments(r.Context(), externalIDs, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"payments": details})
}

// GetPaymentStats handles GET /users/{userId}/payments/stats
func (h *Handler) GetPaymentStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	stats, err := h.service.GetPaymentStats(r.Context(), r.PathValue("userId"), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// GetClientPaymentStats handles GET /payments/stats
func (h *Handler) GetClientPaymentStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	stats, err := h.service.GetClientPaymentStats(r.Context(), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// GetPaymentAccount handles GET /users/{userId}/payment-account
func (h *Handler) GetPaymentAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	account, err := h.service.GetPaymentAccount(r.Context(), r.PathValue("userId"), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, account)
}

// GetPaymentAccountURL handles POST /users/{userId}/payment-account/url
func (h *Handler) GetPaymentAccountURL(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	resp, err := h.service.GetPaymentAccountURL(r.Context(), r.PathValue("userId"), actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// transition runs one of the id-only state transitions
func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error)) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		h.respondUnauthenticated(w)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid payment id"))
		return
	}

	payment, err := op(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, payment)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondUnauthenticated(w http.ResponseWriter) {
	h.respondError(w, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied, "authentication required"))
}

// respondError maps domain error codes to HTTP status codes
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var domainErr *domain.DomainError
	status := http.StatusInternalServerError
	code := domain.ErrorCodeInternalError
	message := "internal server error"

	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
		status = httpStatus(domainErr.Code)
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    string(code),
			"message": message,
		},
	})
}

func httpStatus(code domain.ErrorCode) int {
	switch code {
	case domain.ErrorCodeAuthAccessDenied:
		return http.StatusForbidden
	case domain.ErrorCodePaymentNotFound, domain.ErrorCodeAccountNotFound:
		return http.StatusNotFound
	case domain.ErrorCodePaymentInvalidState, domain.ErrorCodeAccountAlreadyConnected:
		return http.StatusConflict
	case domain.ErrorCodeValidationFailed:
		return http.StatusBadRequest
	case domain.ErrorCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
