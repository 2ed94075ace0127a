package model

import "time"

// Booking status values. CANCELLED and COMPLETED are terminal; a
// WAITLISTED booking may only become CONFIRMED through promotion.
const (
	StatusConfirmed  = "CONFIRMED"
	StatusWaitlisted = "WAITLISTED"
	StatusCancelled  = "CANCELLED"
	StatusCompleted  = "COMPLETED"
)

// Booking joins a user to a class and carries the lifecycle state.
// Several bookings may exist for the same (user, class) pair — members
// book for family — so nothing here is unique besides the id.
// CreatedAt doubles as the waitlist FIFO key.
type Booking struct {
	ID          uint64
	UserID      uint64
	ClassID     uint64
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Live reports whether the booking still occupies a seat or a waitlist
// slot, i.e. whether it can still be cancelled.
func (b Booking) Live() bool {
	return b.Status == StatusConfirmed || b.Status == StatusWaitlisted
}
