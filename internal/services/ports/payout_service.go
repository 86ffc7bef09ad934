package ports

import "context"

// PayoutError records a failure for one unit of batch work
type PayoutError struct {
	UserID   string `json:"userId,omitempty"`
	PayoutID string `json:"payoutId,omitempty"`
	Error    string `json:"error"`
}

// PayoutRunResult summarizes one batch run
type PayoutRunResult struct {
	AutoApproved     int64         `json:"autoApproved"`
	PayoutsCreated   int           `json:"payoutsCreated"`
	UsersSkipped     int           `json:"usersSkipped"`
	TransfersSettled int           `json:"transfersSettled"`
	Errors           []PayoutError `json:"errors,omitempty"`
}

// Failed reports whether any unit of work failed during the run
func (r *PayoutRunResult) Failed() bool {
	return len(r.Errors) > 0
}

// PayoutService runs the scheduled payout batch: auto-approving stale
// drafts, batching eligible pending payments into payouts, and settling
// transfers with the gateway. Failures are isolated per unit of work and
// reported in the result; Run never aborts the whole batch.
type PayoutService interface {
	Run(ctx context.Context) *PayoutRunResult
}
