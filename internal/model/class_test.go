package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassStartsAtComposesInZone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	c := Class{
		ClassDate: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		EndTime:   "19:30:00", // MySQL TIME scans with seconds
	}

	start, err := c.StartsAt(berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 14, 18, 0, 0, 0, berlin), start)

	end, err := c.EndsAt(berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 14, 19, 30, 0, 0, berlin), end)

	// Nil location falls back to UTC.
	start, err = c.StartsAt(nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, start.Location())
}

func TestClassStartsAtRejectsGarbage(t *testing.T) {
	c := Class{ClassDate: time.Now(), StartTime: "six pm"}
	_, err := c.StartsAt(time.UTC)
	assert.Error(t, err)
}

func TestSeatsLeftClamps(t *testing.T) {
	assert.Equal(t, 3, Class{MaxParticipants: 10, CurrentParticipants: 7}.SeatsLeft())
	assert.Equal(t, 0, Class{MaxParticipants: 10, CurrentParticipants: 10}.SeatsLeft())
	assert.Equal(t, 0, Class{MaxParticipants: 5, CurrentParticipants: 9}.SeatsLeft())
}

func TestBookingLive(t *testing.T) {
	assert.True(t, Booking{Status: StatusConfirmed}.Live())
	assert.True(t, Booking{Status: StatusWaitlisted}.Live())
	assert.False(t, Booking{Status: StatusCancelled}.Live())
	assert.False(t, Booking{Status: StatusCompleted}.Live())
}
