package payout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/crowdcraft/payments/internal/domain/models"
	"github.com/crowdcraft/payments/internal/domain/ports"
	serviceports "github.com/crowdcraft/payments/internal/services/ports"
	"github.com/crowdcraft/payments/pkg/observability"
	"github.com/crowdcraft/payments/pkg/timeutil"
)

// Config holds the payout batching thresholds
type Config struct {
	// ReleaseWindow is stamped onto drafts the batch auto-approves
	ReleaseWindow time.Duration

	// AutoApproveAfter is how long a draft may sit unreviewed before the
	// batch approves it on the client's behalf
	AutoApproveAfter time.Duration

	// MinReleaseAmount is the smallest pending total (minor units) worth
	// paying out; users below it are skipped until they accumulate more
	MinReleaseAmount int64

	// Currency for gateway transfers
	Currency string
}

// DefaultConfig returns the production batching thresholds
func DefaultConfig() Config {
	return Config{
		ReleaseWindow:    15 * 24 * time.Hour,
		AutoApproveAfter: 3 * 24 * time.Hour,
		MinReleaseAmount: 5000,
		Currency:         "usd",
	}
}

// Service implements serviceports.PayoutService
type Service struct {
	db       ports.DBPort
	payments ports.PaymentRepository
	accounts ports.PaymentAccountRepository
	payouts  ports.PayoutRepository
	gateway  ports.StripeGateway
	logger   ports.Logger
	config   Config
	now      func() time.Time
}

// NewService creates a new payout batch service
func NewService(
	db ports.DBPort,
	payments ports.PaymentRepository,
	accounts ports.PaymentAccountRepository,
	payouts ports.PayoutRepository,
	gateway ports.StripeGateway,
	logger ports.Logger,
	config Config,
) *Service {
	return &Service{
		db:       db,
		payments: payments,
		accounts: accounts,
		payouts:  payouts,
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

// Run executes one payout batch: auto-approve stale drafts, batch each
// eligible user's releasable payments into a payout, then settle every
// unpaid payout with the gateway. Each phase continues past individual
// failures; the result carries whatever went wrong.
func (s *Service) Run(ctx context.Context) *serviceports.PayoutRunResult {
	result := &serviceports.PayoutRunResult{}
	started := s.now()

	s.logger.Info("payout batch started")

	s.approveStaleDrafts(ctx, result)
	s.createPayouts(ctx, result)
	s.settleTransfers(ctx, result)

	s.logger.Info("payout batch finished",
		ports.Int64("auto_approved", result.AutoApproved),
		ports.Int("payouts_created", result.PayoutsCreated),
		ports.Int("users_skipped", result.UsersSkipped),
		ports.Int("transfers_settled", result.TransfersSettled),
		ports.Int("errors", len(result.Errors)),
		ports.String("duration", s.now().Sub(started).String()))

	return result
}

// approveStaleDrafts bulk-approves drafts older than the auto-approve window
func (s *Service) approveStaleDrafts(ctx context.Context, result *serviceports.PayoutRunResult) {
	now := s.now()
	cutoff := now.Add(-s.config.AutoApproveAfter)
	releasedAt := now.Add(s.config.ReleaseWindow)

	approved, err := s.payments.ApproveStaleDrafts(ctx, nil, cutoff, now, releasedAt)
	if err != nil {
		s.logger.Error("error auto-approving stale drafts", ports.Err(err))
		result.Errors = append(result.Errors, serviceports.PayoutError{
			Error: fmt.Sprintf("auto-approve stale drafts: %v", err),
		})
		return
	}

	result.AutoApproved = approved
	for i := int64(0); i < approved; i++ {
		observability.RecordPaymentTransition(
			string(models.PaymentStatusDraft), string(models.PaymentStatusPending), observability.TriggerBatch)
	}

	if approved > 0 {
		s.logger.Info("stale drafts auto-approved", ports.Int64("count", approved))
	}
}

// createPayouts batches each eligible user's releasable payments into a payout
func (s *Service) createPayouts(ctx context.Context, result *serviceports.PayoutRunResult) {
	// Coarse pre-filter on the total pending amount; the per-user step
	// re-checks the threshold against released payments only
	userIDs, err := s.payments.ListUserIDsWithPendingTotalAtLeast(ctx, nil, s.config.MinReleaseAmount)
	if err != nil {
		s.logger.Error("error listing payout candidates", ports.Err(err))
		result.Errors = append(result.Errors, serviceports.PayoutError{
			Error: fmt.Sprintf("list payout candidates: %v", err),
		})
		return
	}

	for _, userID := range userIDs {
		created, err := s.createPayoutForUser(ctx, userID)
		if err != nil {
			s.logger.Error("error creating payout for user",
				ports.String("user_id", userID), ports.Err(err))
			result.Errors = append(result.Errors, serviceports.PayoutError{
				UserID: userID,
				Error:  err.Error(),
			})
			continue
		}
		if created {
			result.PayoutsCreated++
		} else {
			result.UsersSkipped++
		}
	}
}

// createPayoutForUser captures the user's releasable payments into a new
// payout. Returns false without error when the user is skipped: no connected
// account, or the releasable total is below the threshold.
func (s *Service) createPayoutForUser(ctx context.Context, userID string) (bool, error) {
	account, err := s.accounts.GetConnectedByUserID(ctx, nil, userID)
	if err != nil {
		return false, fmt.Errorf("load payment account: %w", err)
	}
	if account == nil {
		s.logger.Info("skipping payout, no connected account",
			ports.String("user_id", userID))
		return false, nil
	}

	now := s.now()
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		payments, err := s.payments.ListReleasable(ctx, tx, userID, now)
		if err != nil {
			return fmt.Errorf("list releasable payments: %w", err)
		}

		var total int64
		ids := make([]uuid.UUID, len(payments))
		for i, p := range payments {
			total += p.Amount
			ids[i] = p.ID
		}
		if total < s.config.MinReleaseAmount {
			return errBelowThreshold
		}

		payout := &models.Payout{
			ID:               uuid.New(),
			PaymentAccountID: account.ID,
			CreatedAt:        now,
			Amount:           total,
			Status:           models.PayoutStatusCreated,
		}
		if err := s.payouts.Create(ctx, tx, payout); err != nil {
			return fmt.Errorf("create payout: %w", err)
		}

		claimed, err := s.payments.ClaimForPayout(ctx, tx, ids, payout.ID, now)
		if err != nil {
			return fmt.Errorf("claim payments: %w", err)
		}
		if claimed != int64(len(ids)) {
			// A concurrent cancel moved one of the captured rows; abort
			// and let the next run recompute the batch
			return fmt.Errorf("claimed %d of %d captured payments", claimed, len(ids))
		}

		for range payments {
			observability.RecordPaymentTransition(
				string(models.PaymentStatusPending), string(models.PaymentStatusPaid), observability.TriggerBatch)
		}
		observability.RecordPayoutCreated(total)

		s.logger.Info("payout created",
			ports.String("payout_id", payout.ID.String()),
			ports.String("user_id", userID),
			ports.Int64("amount", total),
			ports.Int("payments", len(payments)))
		return nil
	})
	if err == errBelowThreshold {
		s.logger.Info("skipping payout, releasable total below threshold",
			ports.String("user_id", userID))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// settleTransfers executes a gateway transfer for every unpaid payout,
// including leftovers from earlier runs whose transfer failed
func (s *Service) settleTransfers(ctx context.Context, result *serviceports.PayoutRunResult) {
	payouts, err := s.payouts.ListByStatus(ctx, nil, models.PayoutStatusCreated)
	if err != nil {
		s.logger.Error("error listing unsettled payouts", ports.Err(err))
		result.Errors = append(result.Errors, serviceports.PayoutError{
			Error: fmt.Sprintf("list unsettled payouts: %v", err),
		})
		return
	}

	for _, payout := range payouts {
		if err := s.settlePayout(ctx, payout); err != nil {
			observability.RecordTransfer(false)
			s.logger.Error("error settling payout",
				ports.String("payout_id", payout.ID.String()), ports.Err(err))
			result.Errors = append(result.Errors, serviceports.PayoutError{
				PayoutID: payout.ID.String(),
				Error:    err.Error(),
			})
			continue
		}
		observability.RecordTransfer(true)
		result.TransfersSettled++
	}
}

// settlePayout transfers the payout amount to the owner's connect account.
// The idempotency key is derived from the payout id, so retrying a payout
// whose transfer succeeded but whose status write failed cannot double-pay.
func (s *Service) settlePayout(ctx context.Context, payout *models.Payout) error {
	account, err := s.accounts.GetByID(ctx, nil, payout.PaymentAccountID)
	if err != nil {
		return fmt.Errorf("load payment account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("payment account %s not found", payout.PaymentAccountID)
	}

	transfer, err := s.gateway.CreateTransfer(ctx, payout.Amount, s.config.Currency,
		account.StripeAccountID, "payout-"+payout.ID.String())
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}

	payout.Status = models.PayoutStatusPaid
	payout.TransferID = transfer.ID
	if err := s.payouts.Update(ctx, nil, payout); err != nil {
		return fmt.Errorf("mark payout paid: %w", err)
	}

	s.logger.Info("payout settled",
		ports.String("payout_id", payout.ID.String()),
		ports.String("transfer_id", transfer.ID),
		ports.Int64("amount", payout.Amount))
	return nil
}

// errBelowThreshold aborts the capture transaction without treating the
// skip as a failure
var errBelowThreshold = fmt.Errorf("releasable total below minimum payout amount")
