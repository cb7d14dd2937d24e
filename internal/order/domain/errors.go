package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrInstrumentUnavailable means the target instrument was not
	// available at admission time: either a stale catalog view or a
	// lost race. Safe to retry with a different instrument.
	ErrInstrumentUnavailable = errors.New("instrument unavailable")

	// ErrConflict is the optimistic-concurrency failure on a status
	// update: the stored status no longer matches the expected prior
	// status. Callers re-fetch and retry, bounded.
	ErrConflict = errors.New("order status conflict")
)

// ReservationLimitError rejects a checkout that would exceed the
// per-identity cap on concurrent unpaid reservations. Count and Limit
// are carried for the storefront's remediation message.
type ReservationLimitError struct {
	Count int
	Limit int
}

func (e *ReservationLimitError) Error() string {
	return fmt.Sprintf("reservation limit exceeded: %d of %d pending reservations in use", e.Count, e.Limit)
}

// InvalidTransitionError reports a transition not present in the
// lifecycle table. These are webhook-ordering or programming errors and
// must never be silently applied.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}
