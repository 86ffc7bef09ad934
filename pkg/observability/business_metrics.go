package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions_total",
		Help: "Total number of payment status transitions",
	}, []string{
		"from",    // Draft, Pending
		"to",      // Pending, Paid, Canceled
		"trigger", // api, batch
	})

	payoutsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payouts_created_total",
		Help: "Total number of payout batches created",
	})

	payoutAmountCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_cents_total",
		Help: "Total payout amount in cents (for volume tracking)",
	})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_transfers_total",
		Help: "Total number of gateway transfer attempts",
	}, []string{
		"status", // settled, failed
	})
)

// Transition triggers
const (
	TriggerAPI   = "api"
	TriggerBatch = "batch"
)

// RecordPaymentTransition records one payment status transition
func RecordPaymentTransition(from, to, trigger string) {
	paymentTransitionsTotal.WithLabelValues(from, to, trigger).Inc()
}

// RecordPayoutCreated records a created payout and its amount
func RecordPayoutCreated(amountCents int64) {
	payoutsCreatedTotal.Inc()
	payoutAmountCents.Add(float64(amountCents))
}

// RecordTransfer records a gateway transfer attempt outcome
func RecordTransfer(settled bool) {
	status := "settled"
	if !settled {
		status = "failed"
	}
	transfersTotal.WithLabelValues(status).Inc()
}
