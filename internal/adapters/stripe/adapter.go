package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	adapterports "github.com/crowdcraft/payments/internal/adapters/ports"
	"github.com/crowdcraft/payments/internal/domain/ports"
	"github.com/crowdcraft/payments/pkg/resilience"
)

const apiVersion = "2024-06-20"

// Config holds Stripe API configuration
type Config struct {
	APIKey  string
	BaseURL string // e.g. https://api.stripe.com

	// MaxRetries bounds retry attempts for retriable failures (5xx, transport
	// errors). Requests without an idempotency key are never retried.
	MaxRetries int
}

// Adapter implements ports.StripeGateway over the Stripe REST API.
// Requests are form-encoded per the Stripe wire format.
type Adapter struct {
	config     Config
	httpClient adapterports.HTTPClient
	logger     ports.Logger
	backoff    resilience.BackoffStrategy
	wait       func(ctx context.Context, d time.Duration) error
}

// NewAdapter creates a new Stripe adapter with dependency injection
func NewAdapter(config Config, httpClient adapterports.HTTPClient, logger ports.Logger) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.stripe.com"
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	return &Adapter{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
		backoff:    resilience.DefaultExponentialBackoff(),
		wait:       waitWithContext,
	}
}

// waitWithContext sleeps for d unless the context is canceled first
func waitWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// accountResponse mirrors the fields of the Stripe account object we consume
type accountResponse struct {
	ID             string `json:"id"`
	PayoutsEnabled bool   `json:"payouts_enabled"`
}

type accountLinkResponse struct {
	URL string `json:"url"`
}

type transferResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError represents a structured error returned by the Stripe API
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (%s, http %d): %s", e.Type, e.Code, e.StatusCode, e.Message)
}

// retriable reports whether the request may be retried safely
func (e *APIError) retriable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// CreateExpressAccount provisions a new Express account for onboarding
func (a *Adapter) CreateExpressAccount(ctx context.Context) (*ports.ConnectAccount, error) {
	form := url.Values{}
	form.Set("type", "express")

	var resp accountResponse
	if err := a.do(ctx, http.MethodPost, "/v1/accounts", form, "", &resp); err != nil {
		return nil, err
	}
	return &ports.ConnectAccount{ID: resp.ID, PayoutsEnabled: resp.PayoutsEnabled}, nil
}

// RetrieveAccount fetches the current payout capability of an account
func (a *Adapter) RetrieveAccount(ctx context.Context, accountID string) (*ports.ConnectAccount, error) {
	var resp accountResponse
	path := "/v1/accounts/" + url.PathEscape(accountID)
	if err := a.do(ctx, http.MethodGet, path, nil, "", &resp); err != nil {
		return nil, err
	}
	return &ports.ConnectAccount{ID: resp.ID, PayoutsEnabled: resp.PayoutsEnabled}, nil
}

// CreateOnboardingLink requests a hosted onboarding link for the account
func (a *Adapter) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (*ports.AccountLink, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")

	var resp accountLinkResponse
	if err := a.do(ctx, http.MethodPost, "/v1/account_links", form, "", &resp); err != nil {
		return nil, err
	}
	return &ports.AccountLink{URL: resp.URL}, nil
}

// CreateTransfer moves amount (minor units) to the destination account.
// The idempotency key lets Stripe deduplicate retries of the same transfer,
// so failed payout runs can safely resubmit.
func (a *Adapter) CreateTransfer(ctx context.Context, amount int64, currency, destinationAccountID, idempotencyKey string) (*ports.Transfer, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", currency)
	form.Set("destination", destinationAccountID)

	var resp transferResponse
	if err := a.do(ctx, http.MethodPost, "/v1/transfers", form, idempotencyKey, &resp); err != nil {
		return nil, err
	}
	return &ports.Transfer{ID: resp.ID}, nil
}

// do executes one API call, retrying retriable failures when it is safe to
// do so (GET requests, or POSTs carrying an idempotency key).
func (a *Adapter) do(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	canRetry := method == http.MethodGet || idempotencyKey != ""
	maxAttempts := 1
	if canRetry {
		maxAttempts = a.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := a.backoff.NextDelay(attempt - 1)
			a.logger.Warn("retrying stripe request",
				ports.String("path", path),
				ports.Int("attempt", attempt),
				ports.String("delay", delay.String()))
			if err := a.wait(ctx, delay); err != nil {
				return err
			}
		}

		err := a.doOnce(ctx, method, path, form, idempotencyKey, out)
		if err == nil {
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retriable() {
			return err
		}
	}
	return lastErr
}

func (a *Adapter) doOnce(ctx context.Context, method, path string, form url.Values, idempotencyKey string, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Stripe-Version", apiVersion)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var parsed errorResponse
		if jsonErr := json.Unmarshal(respBody, &parsed); jsonErr == nil {
			apiErr.Type = parsed.Error.Type
			apiErr.Code = parsed.Error.Code
			apiErr.Message = parsed.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode stripe response: %w", err)
		}
	}
	return nil
}
