package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
	"github.com/crowdcraft/payments/pkg/observability"
	"github.com/crowdcraft/payments/pkg/timeutil"
)

const defaultPageSize = 10

// Config holds payment lifecycle settings
type Config struct {
	// ReleaseWindow is the delay after approval before a payment becomes
	// eligible for payout
	ReleaseWindow time.Duration

	// Stripe onboarding redirect URLs
	StripeRefreshURL string
	StripeReturnURL  string
}

// DefaultConfig returns the production lifecycle settings
func DefaultConfig() Config {
	return Config{
		ReleaseWindow: 15 * 24 * time.Hour,
	}
}

// Service implements serviceports.PaymentLifecycleService
type Service struct {
	db       ports.DBPort
	payments ports.PaymentRepository
	accounts ports.PaymentAccountRepository
	gateway  ports.StripeGateway
	logger   ports.Logger
	config   Config
	now      func() time.Time
}

// NewService creates a new payment lifecycle service
func NewService(
	db ports.DBPort,
	payments ports.PaymentRepository,
	accounts ports.PaymentAccountRepository,
	gateway ports.StripeGateway,
	logger ports.Logger,
	config Config,
) *Service {
	return &Service{
		db:       db,
		payments: payments,
		accounts: accounts,
		gateway:  gateway,
		logger:   logger,
		config:   config,
		now:      timeutil.Now,
	}
}

// WithClock overrides the service clock. Tests use this to pin time.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreatePayment creates a new payment in Draft state.
// Only clients and service accounts may create payments.
func (s *Service) CreatePayment(ctx context.Context, req serviceports.CreatePaymentRequest, actor domain.Actor) (*models.Payment, error) {
	if !actor.IsClient && !actor.IsServiceAccount {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"only clients and service accounts can create payments")
	}
	if req.UserID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "userId is required")
	}
	if req.Amount <= 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "amount must be positive")
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		UserID:         req.UserID,
		Amount:         req.Amount,
		Description:    req.Description,
		Status:         models.PaymentStatusDraft,
		OriginalAmount: req.Amount,
		CreatedAt:      s.now(),
		CreatedBy:      actor.Username,
		ExternalID:     req.ExternalID,
	}

	if err := s.payments.Create(ctx, nil, payment); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create payment", err)
	}

	s.logger.Info("payment created",
		ports.String("payment_id", payment.ID.String()),
		ports.String("user_id", payment.UserID),
		ports.Int64("amount", payment.Amount),
		ports.String("created_by", actor.Username))

	return payment, nil
}

// UpdatePayment overwrites amount and description of a Draft payment and
// optionally performs the approval transition within the same update.
func (s *Service) UpdatePayment(ctx context.Context, req serviceports.UpdatePaymentRequest, actor domain.Actor) (*models.Payment, error) {
	if !actor.IsClient {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"only clients can update payments")
	}

	payment, err := s.payments.GetByID(ctx, nil, req.ID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payment", err)
	}
	if payment == nil {
		return nil, notFound(req.ID)
	}
	if payment.Status != models.PaymentStatusDraft {
		return nil, invalidState("payment in this state cannot be updated", payment.Status)
	}

	now := s.now()
	payment.Amount = req.Amount
	payment.Description = req.Description
	payment.UpdatedAt = &now
	payment.UpdatedBy = actor.Username

	if req.Approve {
		s.stampApproval(payment, now)
	}

	if err := s.saveTransition(ctx, payment, models.PaymentStatusDraft); err != nil {
		return nil, err
	}

	if req.Approve {
		observability.RecordPaymentTransition(
			string(models.PaymentStatusDraft), string(models.PaymentStatusPending), observability.TriggerAPI)
	}

	s.logger.Info("payment updated",
		ports.String("payment_id", payment.ID.String()),
		ports.Bool("approved", req.Approve),
		ports.String("updated_by", actor.Username))

	return payment, nil
}

// ApprovePayment transitions a Draft payment to Pending, stamping the
// approval time and the release date.
func (s *Service) ApprovePayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error) {
	if !actor.IsClient {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"only clients can approve payments")
	}

	payment, err := s.payments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payment", err)
	}
	if payment == nil {
		return nil, notFound(id)
	}
	if payment.Status != models.PaymentStatusDraft {
		return nil, invalidState("payment in this state cannot be approved", payment.Status)
	}

	now := s.now()
	payment.UpdatedAt = &now
	payment.UpdatedBy = actor.Username
	s.stampApproval(payment, now)

	if err := s.saveTransition(ctx, payment, models.PaymentStatusDraft); err != nil {
		return nil, err
	}

	observability.RecordPaymentTransition(
		string(models.PaymentStatusDraft), string(models.PaymentStatusPending), observability.TriggerAPI)

	s.logger.Info("payment approved",
		ports.String("payment_id", payment.ID.String()),
		ports.String("released_at", payment.ReleasedAt.Format(time.RFC3339)),
		ports.String("approved_by", actor.Username))

	return payment, nil
}

// CancelPayment transitions a Draft or Pending payment to Canceled
func (s *Service) CancelPayment(ctx context.Context, id uuid.UUID, actor domain.Actor) (*models.Payment, error) {
	if !actor.IsClient {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"only clients can cancel payments")
	}

	payment, err := s.payments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payment", err)
	}
	if payment == nil {
		return nil, notFound(id)
	}
	if !payment.Status.CanTransitionTo(models.PaymentStatusCanceled) {
		return nil, invalidState("payment in this state cannot be canceled", payment.Status)
	}

	now := s.now()
	from := payment.Status
	payment.Status = models.PaymentStatusCanceled
	payment.CancelledAt = &now
	payment.UpdatedAt = &now
	payment.UpdatedBy = actor.Username

	if err := s.saveTransition(ctx, payment, from); err != nil {
		return nil, err
	}

	observability.RecordPaymentTransition(string(from), string(models.PaymentStatusCanceled), observability.TriggerAPI)

	s.logger.Info("payment canceled",
		ports.String("payment_id", payment.ID.String()),
		ports.String("previous_status", string(from)),
		ports.String("canceled_by", actor.Username))

	return payment, nil
}

// GetPaymentsForUser returns the user's Pending and Paid payments, paginated.
// Pages are 1-indexed; perPage defaults to 10.
func (s *Service) GetPaymentsForUser(ctx context.Context, userID string, page, perPage int, actor domain.Actor) ([]serviceports.PaymentDetails, error) {
	if !actor.CanViewUser(userID) {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"cannot get payments of another user")
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPageSize
	}

	payments, err := s.payments.ListForUser(ctx, nil, userID,
		[]models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusPaid},
		int32(perPage), int32((page-1)*perPage))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list payments", err)
	}

	return toDetails(payments), nil
}

// GetReferencePayments returns payments matching the given external ids.
// Clients see all matching payments; other actors only their own.
func (s *Service) GetReferencePayments(ctx context.Context, externalIDs []string, actor domain.Actor) ([]serviceports.PaymentDetails, error) {
	ownerFilter := ""
	if !actor.IsClient {
		ownerFilter = actor.ID
	}

	payments, err := s.payments.ListByExternalIDs(ctx, nil, externalIDs, ownerFilter,
		[]models.PaymentStatus{models.PaymentStatusDraft, models.PaymentStatusPending, models.PaymentStatusPaid})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "list reference payments", err)
	}

	return toDetails(payments), nil
}

// GetPaymentStats returns the user's draft/pending/paid totals. The three
// sums run inside one read-only transaction so concurrent writes cannot
// produce a torn read across them.
func (s *Service) GetPaymentStats(ctx context.Context, userID string, actor domain.Actor) (*serviceports.PaymentStats, error) {
	if !actor.CanViewUser(userID) {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"cannot get payment stats of another user")
	}

	stats := &serviceports.PaymentStats{}
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if stats.DraftPaymentsAmount, err = s.payments.SumAmountByStatus(ctx, tx, userID, models.PaymentStatusDraft); err != nil {
			return err
		}
		if stats.PendingPaymentsAmount, err = s.payments.SumAmountByStatus(ctx, tx, userID, models.PaymentStatusPending); err != nil {
			return err
		}
		if stats.TotalEarnings, err = s.payments.SumAmountByStatus(ctx, tx, userID, models.PaymentStatusPaid); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "compute payment stats", err)
	}

	return stats, nil
}

// GetClientPaymentStats returns the total amount across all Paid payments
// system-wide. Client role required.
func (s *Service) GetClientPaymentStats(ctx context.Context, actor domain.Actor) (*serviceports.ClientPaymentStats, error) {
	if !actor.IsClient {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"only clients can get client payment stats")
	}

	total, err := s.payments.SumAmountByStatus(ctx, nil, "", models.PaymentStatusPaid)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "compute client payment stats", err)
	}

	return &serviceports.ClientPaymentStats{TotalExpenses: total}, nil
}

// GetPaymentAccount returns the user's payout account, promoting it to
// Connected when Stripe reports payout capability. Gateway failures are
// wrapped and never mutate persisted state.
func (s *Service) GetPaymentAccount(ctx context.Context, userID string, actor domain.Actor) (*models.PaymentAccount, error) {
	if actor.ID != userID {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"cannot get payment account of another user")
	}

	account, err := s.accounts.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payment account", err)
	}
	if account == nil {
		return nil, domain.NewDomainError(domain.ErrorCodeAccountNotFound, "payment account not found").
			WithDetail("user_id", userID)
	}

	if account.Status == models.AccountStatusConnected {
		return account, nil
	}

	gatewayAccount, err := s.gateway.RetrieveAccount(ctx, account.StripeAccountID)
	if err != nil {
		s.logger.Error("error fetching stripe account",
			ports.String("user_id", userID),
			ports.String("stripe_account_id", account.StripeAccountID),
			ports.Err(err))
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "error fetching stripe account", err)
	}

	if !gatewayAccount.PayoutsEnabled {
		// Onboarding incomplete; the caller retries later
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError,
			"payment account is not yet connected").WithDetail("user_id", userID)
	}

	now := s.now()
	account.Status = models.AccountStatusConnected
	account.ConnectedAt = &now
	if err := s.accounts.Update(ctx, nil, account); err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "connect payment account", err)
	}

	s.logger.Info("payment account connected",
		ports.String("user_id", userID),
		ports.String("stripe_account_id", account.StripeAccountID))

	return account, nil
}

// GetPaymentAccountURL returns an onboarding link for the user's payout
// account, creating the account on first call. A Connected account has
// nothing to onboard and fails with an invalid-request error.
func (s *Service) GetPaymentAccountURL(ctx context.Context, userID string, actor domain.Actor) (*serviceports.CreatePaymentAccountResponse, error) {
	if actor.ID != userID {
		return nil, domain.NewDomainError(domain.ErrorCodeAuthAccessDenied,
			"cannot get payment account URL of another user")
	}

	account, err := s.accounts.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "load payment account", err)
	}

	if account == nil {
		gatewayAccount, err := s.gateway.CreateExpressAccount(ctx)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeGatewayError, "create stripe account", err)
		}

		account = &models.PaymentAccount{
			ID:              uuid.New(),
			UserID:          userID,
			StripeAccountID: gatewayAccount.ID,
			Status:          models.AccountStatusCreated,
			CreatedAt:       s.now(),
		}
		if err := s.accounts.Create(ctx, nil, account); err != nil {
			return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "create payment account", err)
		}

		s.logger.Info("payment account created",
			ports.String("user_id", userID),
			ports.String("stripe_account_id", account.StripeAccountID))
	}

	switch account.Status {
	case models.AccountStatusConnected:
		return nil, domain.NewDomainError(domain.ErrorCodeAccountAlreadyConnected,
			"payment account is already connected")
	case models.AccountStatusCreated:
		link, err := s.gateway.CreateOnboardingLink(ctx, account.StripeAccountID,
			s.config.StripeRefreshURL, s.config.StripeReturnURL)
		if err != nil {
			return nil, domain.WrapError(domain.ErrorCodeGatewayError, "create onboarding link", err)
		}
		return &serviceports.CreatePaymentAccountResponse{URL: link.URL}, nil
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeInternalError,
			fmt.Sprintf("unexpected account status %q", account.Status))
	}
}

// stampApproval applies the Draft -> Pending transition timestamps.
// The release date is approval time plus the release window, for both
// interactive and folded (update-with-approve) approvals.
func (s *Service) stampApproval(p *models.Payment, now time.Time) {
	releasedAt := now.Add(s.config.ReleaseWindow)
	p.Status = models.PaymentStatusPending
	p.ApprovedAt = &now
	p.ReleasedAt = &releasedAt
}

// saveTransition persists a guarded update and maps a lost race to an
// invalid-state error: the concurrent winner already moved the row.
func (s *Service) saveTransition(ctx context.Context, p *models.Payment, expected models.PaymentStatus) error {
	ok, err := s.payments.Update(ctx, nil, p, expected)
	if err != nil {
		return domain.WrapError(domain.ErrorCodeDatabaseError, "save payment", err)
	}
	if !ok {
		return domain.NewDomainError(domain.ErrorCodePaymentInvalidState,
			"payment was modified concurrently").WithDetail("payment_id", p.ID.String())
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return domain.NewDomainError(domain.ErrorCodePaymentNotFound, "payment not found").
		WithDetail("payment_id", id.String())
}

func invalidState(message string, status models.PaymentStatus) error {
	return domain.NewDomainError(domain.ErrorCodePaymentInvalidState, message).
		WithDetail("status", string(status))
}

// toDetails projects payments into the caller-facing DTO shape
func toDetails(payments []*models.Payment) []serviceports.PaymentDetails {
	details := make([]serviceports.PaymentDetails, len(payments))
	for i, p := range payments {
		details[i] = serviceports.PaymentDetails{
			ID:             p.ID,
			UserID:         p.UserID,
			Amount:         p.Amount,
			Description:    p.Description,
			Status:         string(p.Status),
			OriginalAmount: p.OriginalAmount,
			ApprovedAt:     isoTime(p.ApprovedAt),
			PaidAt:         isoTime(p.PaidAt),
			ExternalID:     p.ExternalID,
		}
	}
	return details
}

// isoTime formats an optional timestamp as ISO-8601 or nil
func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
