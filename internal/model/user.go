package model

import "time"

// User represents a studio member or administrator as stored in the
// `users` table. The three session counters form the credit ledger:
// SessionsRemaining is the prepaid balance, SessionsBooked counts live
// confirmed bookings and ClassesAttended counts completed ones. All
// three are mutated exclusively through the booking engine (or the
// checkout webhook, which only ever adds to SessionsRemaining).
type User struct {
	ID                uint64
	Email             string
	PasswordHash      string
	Role              string // MEMBER or ADMIN
	SessionsRemaining int
	SessionsBooked    int
	ClassesAttended   int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
