package booking

import "time"

// DefaultWindowHours is the canonical late-cancellation window. Earlier
// iterations of the product disagreed between 12 and 24 hours; 12 is
// authoritative and the value is injectable through configuration, so
// it lives in exactly one place.
const DefaultWindowHours = 12

// RefundPolicy decides whether cancelling a confirmed booking returns
// the session credit or consumes it as a late penalty.
type RefundPolicy struct {
	Window time.Duration
}

// NewRefundPolicy builds a policy from a window expressed in hours.
// Non-positive values fall back to DefaultWindowHours.
func NewRefundPolicy(windowHours int) RefundPolicy {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	return RefundPolicy{Window: time.Duration(windowHours) * time.Hour}
}

// Refundable reports whether a cancellation at `now` escapes the late
// penalty. Strictly more than Window before the class start is
// refundable; exactly at the boundary is not. Both instants must be
// absolute times (the class start composed in the studio timezone), so
// the comparison is independent of the server's local zone.
func (p RefundPolicy) Refundable(classStart, now time.Time) bool {
	return classStart.Sub(now) > p.Window
}
