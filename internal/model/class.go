package model

import (
	"fmt"
	"time"
)

// Class is a single scheduled session on the studio calendar. The date
// and clock times are stored separately (DATE and TIME columns) and are
// only meaningful in the studio's configured timezone; use StartsAt and
// EndsAt to obtain absolute instants.
//
// CurrentParticipants must always equal the number of CONFIRMED
// bookings for the class. The counter is maintained incrementally and
// only ever changes inside the same transaction as the booking-row
// write that justifies it.
type Class struct {
	ID                  uint64
	Title               string
	ClassDate           time.Time // date portion only
	StartTime           string    // HH:MM[:SS]
	EndTime             string    // HH:MM[:SS]
	MaxParticipants     int
	CurrentParticipants int
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// StartsAt composes the class date and start time in the given
// timezone. Refund decisions depend on this being explicit; naive
// date arithmetic that assumes the server's local zone is exactly the
// fragility this avoids.
func (c Class) StartsAt(loc *time.Location) (time.Time, error) {
	return composeAt(c.ClassDate, c.StartTime, loc)
}

// EndsAt composes the class date and end time in the given timezone.
func (c Class) EndsAt(loc *time.Location) (time.Time, error) {
	return composeAt(c.ClassDate, c.EndTime, loc)
}

// SeatsLeft returns the number of unclaimed seats, never negative.
func (c Class) SeatsLeft() int {
	if left := c.MaxParticipants - c.CurrentParticipants; left > 0 {
		return left
	}
	return 0
}

func composeAt(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.Parse("15:04:05", clock)
	if err != nil {
		// Admin input arrives without seconds; MySQL TIME scans with them.
		t, err = time.Parse("15:04", clock)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse class time %q: %w", clock, err)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
