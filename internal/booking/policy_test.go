package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefundPolicyBoundary(t *testing.T) {
	p := NewRefundPolicy(12)
	start := time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC)

	// Strictly more than 12h ahead refunds.
	assert.True(t, p.Refundable(start, start.Add(-12*time.Hour-time.Second)))
	// Exactly at the boundary the penalty applies.
	assert.False(t, p.Refundable(start, start.Add(-12*time.Hour)))
	assert.False(t, p.Refundable(start, start.Add(-11*time.Hour)))
	assert.False(t, p.Refundable(start, start))
	assert.False(t, p.Refundable(start, start.Add(time.Hour)))
}

func TestRefundPolicyDefaultWindow(t *testing.T) {
	assert.Equal(t, time.Duration(DefaultWindowHours)*time.Hour, NewRefundPolicy(0).Window)
	assert.Equal(t, time.Duration(DefaultWindowHours)*time.Hour, NewRefundPolicy(-3).Window)
	assert.Equal(t, 24*time.Hour, NewRefundPolicy(24).Window)
}

func TestRefundPolicyRespectsTimezoneInstants(t *testing.T) {
	p := NewRefundPolicy(12)
	berlin, err := time.LoadLocation("Europe/Berlin")
	assert.NoError(t, err)

	// 18:00 Berlin is 17:00 UTC in March; comparing instants across
	// zones must not change the verdict.
	start := time.Date(2025, 3, 11, 18, 0, 0, 0, berlin)
	nowUTC := time.Date(2025, 3, 11, 4, 0, 0, 0, time.UTC) // 13h before
	assert.True(t, p.Refundable(start, nowUTC))
	nowUTC = time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC) // 11h before
	assert.False(t, p.Refundable(start, nowUTC))
}
