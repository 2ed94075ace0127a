package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// Engine owns every state transition of the booking lifecycle. It is
// safe for concurrent use: all reads and writes of a single operation
// happen inside one Store transaction with the affected class row
// locked.
type Engine struct {
	store  Store
	policy RefundPolicy
	loc    *time.Location

	// Now supplies the current time and exists so tests can pin the
	// clock. It defaults to time.Now in the studio timezone.
	Now func() time.Time
}

// NewEngine constructs an Engine. loc is the studio timezone used to
// compose class start datetimes; nil means UTC.
func NewEngine(store Store, policy RefundPolicy, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:  store,
		policy: policy,
		loc:    loc,
		Now:    func() time.Time { return time.Now().In(loc) },
	}
}

// Outcome classifies the result of a booking request.
type Outcome string

const (
	OutcomeConfirmed  Outcome = "confirmed"
	OutcomeWaitlisted Outcome = "waitlisted"
	// OutcomeFull means the class is full and the caller did not opt in
	// to the waitlist. No booking is created; it is not an error so the
	// caller can offer to retry with the waitlist flag.
	OutcomeFull Outcome = "full"
)

// BookResult reports what a booking request produced.
type BookResult struct {
	Outcome Outcome
	Booking *model.Booking // nil when Outcome is OutcomeFull
	// LivePair counts live bookings this user now holds for the class,
	// including the new one. Multiple bookings per pair are allowed
	// (family members); the count is surfaced so the caller can mention
	// it, never to block.
	LivePair int
}

// CancelResult reports the side effects of a cancellation.
type CancelResult struct {
	// Penalized is true when the cancellation fell inside the refund
	// window and consumed one session credit.
	Penalized bool
	// Promoted is the waitlisted booking advanced into the freed seat,
	// if any.
	Promoted *model.Booking
}

// CompletionResult is the per-booking outcome of a completion batch.
type CompletionResult struct {
	BookingID uint64
	Err       error
}

// Book creates a booking for userID on classID. Capacity decides the
// status: CONFIRMED while seats remain, WAITLISTED when full and
// joinWaitlist is set. A confirmed booking reserves one seat and bumps
// the member's SessionsBooked; a waitlist entry touches nothing, so a
// member promoted later is never double-charged.
func (e *Engine) Book(ctx context.Context, userID, classID uint64, joinWaitlist bool) (*BookResult, error) {
	return e.book(ctx, userID, classID, joinWaitlist, true)
}

// AddParticipant books userID into the class on an admin's behalf. The
// member's credit balance is not checked, but capacity and schedule
// rules still apply.
func (e *Engine) AddParticipant(ctx context.Context, classID, userID uint64, joinWaitlist bool) (*BookResult, error) {
	return e.book(ctx, userID, classID, joinWaitlist, false)
}

func (e *Engine) book(ctx context.Context, userID, classID uint64, joinWaitlist, requireCredit bool) (*BookResult, error) {
	var res BookResult
	err := e.store.InTx(ctx, func(tx Tx) error {
		cls, err := tx.ClassForUpdate(ctx, classID)
		if err != nil {
			return err
		}
		if !cls.IsActive {
			return ErrClassInactive
		}
		startsAt, err := cls.StartsAt(e.loc)
		if err != nil {
			return err
		}
		if !startsAt.After(e.Now()) {
			return ErrClassStarted
		}

		usr, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		full := cls.CurrentParticipants >= cls.MaxParticipants
		if full && !joinWaitlist {
			res = BookResult{Outcome: OutcomeFull}
			return nil
		}
		status := model.StatusConfirmed
		if full {
			status = model.StatusWaitlisted
		} else if requireCredit && usr.SessionsRemaining <= 0 {
			// A free seat is never bypassed into the waitlist.
			return ErrInsufficientCredit
		}

		b := &model.Booking{
			UserID:    userID,
			ClassID:   classID,
			Status:    status,
			CreatedAt: e.Now().UTC(),
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		if status == model.StatusConfirmed {
			claimed, err := tx.ClaimSeat(ctx, classID)
			if err != nil {
				return err
			}
			if !claimed {
				// Unreachable while the class row lock is held. Failing
				// hard beats silently waitlisting someone we just told
				// there was a seat for.
				return fmt.Errorf("class %d: seat claim failed after capacity check", classID)
			}
			if err := tx.AdjustCredits(ctx, userID, deltaReserve); err != nil {
				return err
			}
		}

		n, err := tx.CountLiveForPair(ctx, userID, classID)
		if err != nil {
			return err
		}
		outcome := OutcomeConfirmed
		if status == model.StatusWaitlisted {
			outcome = OutcomeWaitlisted
		}
		res = BookResult{Outcome: outcome, Booking: b, LivePair: n}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel cancels a member's own booking. Leaving the waitlist is free;
// giving up a confirmed seat releases it, applies the late penalty when
// inside the refund window, and promotes the waitlist head into the
// freed seat — all in one transaction.
func (e *Engine) Cancel(ctx context.Context, bookingID, requesterID uint64) (*CancelResult, error) {
	return e.cancel(ctx, bookingID, &requesterID, nil, false)
}

// RemoveParticipant cancels a booking on an admin's behalf. Ownership
// is not checked, no penalty ever applies and the class may already
// have started, but waitlist promotion still runs.
func (e *Engine) RemoveParticipant(ctx context.Context, classID, bookingID uint64) (*CancelResult, error) {
	return e.cancel(ctx, bookingID, nil, &classID, true)
}

func (e *Engine) cancel(ctx context.Context, bookingID uint64, requester, classID *uint64, waive bool) (*CancelResult, error) {
	var res CancelResult
	err := e.store.InTx(ctx, func(tx Tx) error {
		res = CancelResult{}
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if requester != nil && b.UserID != *requester {
			return ErrNotOwner
		}
		if classID != nil && b.ClassID != *classID {
			return ErrBookingNotFound
		}
		if !b.Live() {
			return ErrAlreadyFinal
		}

		cls, err := tx.ClassForUpdate(ctx, b.ClassID)
		if err != nil {
			return err
		}
		startsAt, err := cls.StartsAt(e.loc)
		if err != nil {
			return err
		}
		now := e.Now()
		if !waive && !startsAt.After(now) {
			return ErrClassStarted
		}

		ok, err := tx.SetBookingStatus(ctx, b.ID, b.Status, model.StatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyFinal
		}

		if b.Status == model.StatusWaitlisted {
			// Leaving the waitlist touches neither seats nor credits.
			return nil
		}

		delta := deltaRelease
		if !waive && !e.policy.Refundable(startsAt, now) {
			delta = deltaPenalty
			res.Penalized = true
		}
		if err := tx.AdjustCredits(ctx, b.UserID, delta); err != nil {
			return err
		}
		if err := tx.ReleaseSeat(ctx, b.ClassID); err != nil {
			return err
		}

		promoted, err := e.promoteNext(ctx, tx, b.ClassID)
		if err != nil {
			return err
		}
		res.Promoted = promoted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// promoteNext advances the oldest waitlisted booking for the class into
// a seat that was just freed. It must run inside the same transaction
// as the release; otherwise two concurrent cancellations could both
// read the same waitlist head and double-promote it. At most one
// booking is promoted per freed seat.
//
// Promotion deliberately does not re-check SessionsRemaining: the
// waitlist entry was never charged, and the balance is settled through
// the normal completion flow.
func (e *Engine) promoteNext(ctx context.Context, tx Tx, classID uint64) (*model.Booking, error) {
	w, err := tx.OldestWaitlistedForUpdate(ctx, classID)
	if err != nil || w == nil {
		return nil, err
	}
	ok, err := tx.SetBookingStatus(ctx, w.ID, model.StatusWaitlisted, model.StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	claimed, err := tx.ClaimSeat(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("class %d: seat claim failed during promotion", classID)
	}
	if err := tx.AdjustCredits(ctx, w.UserID, deltaReserve); err != nil {
		return nil, err
	}
	w.Status = model.StatusConfirmed
	return w, nil
}

// CompleteClass marks each listed booking as attended. Items are
// independent: a failure on one never aborts the rest, and each item's
// status flip plus its three ledger updates commit atomically.
func (e *Engine) CompleteClass(ctx context.Context, classID uint64, bookingIDs []uint64) []CompletionResult {
	results := make([]CompletionResult, 0, len(bookingIDs))
	for _, id := range bookingIDs {
		results = append(results, CompletionResult{
			BookingID: id,
			Err:       e.completeOne(ctx, classID, id),
		})
	}
	return results
}

func (e *Engine) completeOne(ctx context.Context, classID, bookingID uint64) error {
	return e.store.InTx(ctx, func(tx Tx) error {
		b, err := tx.BookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.ClassID != classID {
			return ErrBookingNotFound
		}
		switch b.Status {
		case model.StatusConfirmed:
		case model.StatusWaitlisted:
			return ErrNotConfirmed
		default:
			return ErrAlreadyFinal
		}

		done := e.Now().UTC()
		ok, err := tx.SetBookingStatus(ctx, b.ID, model.StatusConfirmed, model.StatusCompleted, &done)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyFinal
		}
		if err := tx.AdjustCredits(ctx, b.UserID, deltaConsume); err != nil {
			return err
		}
		// A completed booking no longer counts against capacity. No
		// promotion follows: the class has already started.
		return tx.ReleaseSeat(ctx, b.ClassID)
	})
}

// CancelClass deactivates the class and cancels every live booking in
// the same transaction. Cancellations forced by the studio carry no
// penalty and trigger no promotion; confirmed members get their
// SessionsBooked back and the seat counter is zeroed. Returns how many
// bookings were cancelled.
func (e *Engine) CancelClass(ctx context.Context, classID uint64) (int, error) {
	cancelled := 0
	err := e.store.InTx(ctx, func(tx Tx) error {
		cancelled = 0
		if _, err := tx.ClassForUpdate(ctx, classID); err != nil {
			return err
		}
		live, err := tx.LiveBookingsForClass(ctx, classID)
		if err != nil {
			return err
		}
		for _, b := range live {
			ok, err := tx.SetBookingStatus(ctx, b.ID, b.Status, model.StatusCancelled, nil)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if b.Status == model.StatusConfirmed {
				if err := tx.AdjustCredits(ctx, b.UserID, deltaRelease); err != nil {
					return err
				}
			}
			cancelled++
		}
		if err := tx.ResetSeats(ctx, classID); err != nil {
			return err
		}
		return tx.DeactivateClass(ctx, classID)
	})
	if err != nil {
		return 0, err
	}
	return cancelled, nil
}
