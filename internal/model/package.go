package model

import "time"

// SessionPackage is a purchasable bundle of session credits. Checkout
// itself happens at the payment provider; on a successful webhook the
// package's Sessions are added to the buyer's balance.
type SessionPackage struct {
	ID         uint64
	Name       string
	Sessions   int
	PriceCents uint32
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Purchase records a completed checkout. ProviderRef is the payment
// provider's identifier and is unique, which makes webhook delivery
// idempotent.
type Purchase struct {
	ID            string // uuid
	UserID        uint64
	PackageID     uint64
	SessionsAdded int
	ProviderRef   string
	CreatedAt     time.Time
}
