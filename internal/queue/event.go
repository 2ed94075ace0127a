// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a member's booking lands with
// CONFIRMED status. It carries enough for downstream consumers to log
// or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64 `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	ClassID     uint64 `json:"class_id"`
	ClassTitle  string `json:"class_title"`
	ClassDate   string `json:"class_date"`
	StartTime   string `json:"start_time"`
	ConfirmedAt string `json:"confirmed_at"`
}

// WaitlistPromotedEvent is published when a cancellation frees a seat
// and the oldest waitlisted booking takes it. Notification workers use
// it to tell the member they are in.
type WaitlistPromotedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	ClassID    uint64 `json:"class_id"`
	ClassTitle string `json:"class_title"`
	ClassDate  string `json:"class_date"`
	StartTime  string `json:"start_time"`
	PromotedAt string `json:"promoted_at"`
}
