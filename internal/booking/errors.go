// Package booking implements the booking lifecycle: the per-booking
// state machine, the class capacity tracker, the member credit ledger
// and FIFO waitlist promotion. Every multi-row update runs inside a
// single store transaction so that capacity checks are serializable —
// two concurrent requests can never both claim the last seat.
package booking

import "errors"

// Sentinel errors returned by the engine and by Store implementations.
// Handlers translate these into HTTP statuses; anything else coming out
// of the engine is an infrastructure failure.
var (
	// ErrClassNotFound is returned when the referenced class does not exist.
	ErrClassNotFound = errors.New("class not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrBookingNotFound is returned when the referenced booking does not
	// exist, or does not belong to the class an admin operation named.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrClassInactive is returned when booking into a cancelled class.
	ErrClassInactive = errors.New("class is not active")

	// ErrClassStarted is returned when booking or cancelling after the
	// class start time has passed.
	ErrClassStarted = errors.New("class has already started")

	// ErrNotOwner is returned when a member operates on someone else's
	// booking.
	ErrNotOwner = errors.New("booking belongs to another user")

	// ErrAlreadyFinal is returned when cancelling or completing a booking
	// that is already CANCELLED or COMPLETED. Terminal states never
	// transition, so a double cancel can never double-refund.
	ErrAlreadyFinal = errors.New("booking is already in a terminal state")

	// ErrNotConfirmed is returned when completing a booking that is still
	// on the waitlist.
	ErrNotConfirmed = errors.New("booking is not confirmed")

	// ErrInsufficientCredit is returned when booking a free seat with no
	// sessions remaining.
	ErrInsufficientCredit = errors.New("no sessions remaining")
)
