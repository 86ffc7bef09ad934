package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the current state of a payment
type PaymentStatus string

const (
	PaymentStatusDraft    PaymentStatus = "Draft"
	PaymentStatusPending  PaymentStatus = "Pending"
	PaymentStatusPaid     PaymentStatus = "Paid"
	PaymentStatusCanceled PaymentStatus = "Canceled"
)

// IsTerminal reports whether no transition out of the status is allowed
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCanceled
}

// CanTransitionTo reports whether the transition s -> target is allowed.
// The machine is one-directional:
//
//	Draft   -> Pending, Canceled
//	Pending -> Paid, Canceled
//
// Paid and Canceled are terminal.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	switch s {
	case PaymentStatusDraft:
		return target == PaymentStatusPending || target == PaymentStatusCanceled
	case PaymentStatusPending:
		return target == PaymentStatusPaid || target == PaymentStatusCanceled
	default:
		return false
	}
}

// Payment represents a single payment obligation from a client to a worker.
// Amount is in minor currency units (cents).
type Payment struct {
	ID             uuid.UUID
	UserID         string
	Amount         int64
	Description    string
	Status         PaymentStatus
	OriginalAmount int64
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	ApprovedAt     *time.Time
	ReleasedAt     *time.Time
	PaidAt         *time.Time
	CancelledAt    *time.Time
	CreatedBy      string
	UpdatedBy      string
	ExternalID     string
	PayoutID       *uuid.UUID
}
