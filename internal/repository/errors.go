// Package repository implements the transactional ticket store.  Every
// mutating operation (hold apply, hold release, guest add/remove,
// approve/reject/cancel) runs as a single transaction so that a crash
// or a concurrent attempt can never observe a half-applied hold.
// Domain failures are reported with the sentinel errors defined in the
// model package; idempotent no-op transitions are reported through
// TransitionResult instead of errors so bot and HTTP layers can render
// them directly.
package repository

import "github.com/olzhasov/ticketbot/internal/model"

// TransitionResult is returned by state-machine transitions
// (approve/reject/cancel) and by guest mutations.  Applied is false
// when the operation was a recognized no-op, e.g. approving an
// already-reviewed reservation; Reservation then carries the current,
// unchanged state.
type TransitionResult struct {
	Reservation *model.Reservation
	Applied     bool
	Message     string
}

// applied wraps a reservation in a successful TransitionResult.
func applied(res *model.Reservation, msg string) TransitionResult {
	return TransitionResult{Reservation: res, Applied: true, Message: msg}
}

// skipped wraps a reservation in a no-op TransitionResult.
func skipped(res *model.Reservation, msg string) TransitionResult {
	return TransitionResult{Reservation: res, Applied: false, Message: msg}
}
