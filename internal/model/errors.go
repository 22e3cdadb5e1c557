// Package model defines the entities stored in the ticket database and
// the sentinel errors shared by every layer above it. Handlers compare
// against these values with errors.Is and translate them into HTTP or
// bot-facing responses.
package model

import "errors"

// Lookup failures.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrGuestNotFound       = errors.New("guest not found")
	ErrUserNotFound        = errors.New("user not found")
)

// Inventory failures.  ErrInsufficientInventory is returned when a
// request exceeds the event's total remaining capacity before any tier
// assignment happens.  ErrSoldOut is returned when the tier scan runs
// out of capacity mid-assignment, which can only occur when a
// concurrent writer consumed inventory between the pre-check and the
// commit.
var (
	ErrInsufficientInventory = errors.New("not enough tickets remaining")
	ErrSoldOut               = errors.New("event is sold out")
)

// Validation failures.
var (
	ErrAttendeeCountMismatch = errors.New("attendee names do not match boys+girls count")
	ErrInvalidGender         = errors.New("invalid gender")
	ErrInvalidFieldValue     = errors.New("invalid field value")
)

// State failures.
var (
	ErrImmutableReservation = errors.New("reservation can no longer be modified")
	ErrUserBlocked          = errors.New("user is blocked")
)
