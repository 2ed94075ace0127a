package booking

import (
	"context"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// Store opens serializable units of work against the backing database.
// The MySQL implementation lives in internal/repository; tests use an
// in-memory store.
type Store interface {
	// InTx runs fn inside a transaction. If fn returns an error the
	// transaction is rolled back and the error is returned unchanged;
	// otherwise the transaction commits.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of storage primitives the engine composes. ForUpdate
// methods must acquire an exclusive row lock held until the transaction
// ends — the engine relies on that lock to make check-then-act
// sequences (capacity check + seat claim, waitlist head + promotion)
// atomic with respect to concurrent transactions.
type Tx interface {
	ClassForUpdate(ctx context.Context, classID uint64) (*model.Class, error)
	UserForUpdate(ctx context.Context, userID uint64) (*model.User, error)
	BookingForUpdate(ctx context.Context, bookingID uint64) (*model.Booking, error)

	// InsertBooking persists b and fills in its generated ID.
	InsertBooking(ctx context.Context, b *model.Booking) error

	// SetBookingStatus transitions a booking from one status to another,
	// optionally stamping completed_at. It reports false when the booking
	// was no longer in the `from` status, which callers treat as a lost
	// race rather than an error.
	SetBookingStatus(ctx context.Context, bookingID uint64, from, to string, completedAt *time.Time) (bool, error)

	// CountLiveForPair counts CONFIRMED and WAITLISTED bookings for the
	// (user, class) pair. Informational only; duplicates are allowed.
	CountLiveForPair(ctx context.Context, userID, classID uint64) (int, error)

	// LiveBookingsForClass returns all CONFIRMED and WAITLISTED bookings
	// for the class, locked for update, ordered by creation time.
	LiveBookingsForClass(ctx context.Context, classID uint64) ([]model.Booking, error)

	// OldestWaitlistedForUpdate returns the FIFO head of the class
	// waitlist locked for update, or nil when the waitlist is empty.
	OldestWaitlistedForUpdate(ctx context.Context, classID uint64) (*model.Booking, error)

	// ClaimSeat increments current_participants only while it is below
	// max_participants and reports whether a seat was actually claimed.
	ClaimSeat(ctx context.Context, classID uint64) (bool, error)

	// ReleaseSeat decrements current_participants, clamped at zero.
	ReleaseSeat(ctx context.Context, classID uint64) error

	// ResetSeats zeroes current_participants (class cancellation).
	ResetSeats(ctx context.Context, classID uint64) error

	// DeactivateClass soft-deletes the class.
	DeactivateClass(ctx context.Context, classID uint64) error

	// AdjustCredits applies a clamped delta to the user's ledger fields.
	AdjustCredits(ctx context.Context, userID uint64, d CreditDelta) error
}

// CreditDelta is an adjustment to a user's credit ledger. Each field is
// added to the corresponding counter and the result clamped at zero.
// Clamping is a safety net only: the engine never issues a delta that
// should clamp, and a clamp that fires indicates a logic bug upstream.
type CreditDelta struct {
	Remaining int
	Booked    int
	Attended  int
}

// The four ledger movements the lifecycle produces. Credit is never
// consumed at booking time — only SessionsBooked moves — and is only
// spent at completion or as a late-cancellation penalty.
var (
	deltaReserve = CreditDelta{Booked: +1}
	deltaRelease = CreditDelta{Booked: -1}
	deltaPenalty = CreditDelta{Booked: -1, Remaining: -1}
	deltaConsume = CreditDelta{Booked: -1, Remaining: -1, Attended: +1}
)
