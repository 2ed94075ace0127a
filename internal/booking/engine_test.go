package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// The fixture pins the clock to the morning of March 10th; the default
// class starts the next evening, comfortably outside the 12h window.
var (
	testNow       = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	testClassDate = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
)

func newTestEngine(t *testing.T) (*Engine, *memStore) {
	t.Helper()
	store := newMemStore()
	eng := NewEngine(store, NewRefundPolicy(12), time.UTC)
	eng.Now = func() time.Time { return testNow }
	return eng, store
}

func seedClass(s *memStore, max int) uint64 {
	return s.addClass(testClassDate, "18:00", "19:00", max)
}

func TestBookConfirmed(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 10)
	userID := store.addUser(5)

	res, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, res.Outcome)
	require.NotNil(t, res.Booking)
	assert.Equal(t, model.StatusConfirmed, res.Booking.Status)
	assert.Equal(t, 1, res.LivePair)

	assert.Equal(t, 1, store.class(classID).CurrentParticipants)
	u := store.user(userID)
	assert.Equal(t, 1, u.SessionsBooked)
	assert.Equal(t, 5, u.SessionsRemaining, "credit is only spent at completion")
}

func TestBookWithoutCredit(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 10)
	userID := store.addUser(0)

	_, err := eng.Book(context.Background(), userID, classID, false)
	require.ErrorIs(t, err, ErrInsufficientCredit)

	// Opting into the waitlist does not bypass the credit check while
	// seats remain.
	_, err = eng.Book(context.Background(), userID, classID, true)
	require.ErrorIs(t, err, ErrInsufficientCredit)

	assert.Equal(t, 0, store.class(classID).CurrentParticipants)
}

func TestBookFullClass(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	first := store.addUser(3)
	second := store.addUser(3)

	_, err := eng.Book(context.Background(), first, classID, false)
	require.NoError(t, err)

	res, err := eng.Book(context.Background(), second, classID, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFull, res.Outcome)
	assert.Nil(t, res.Booking, "declining the waitlist creates nothing")

	res, err = eng.Book(context.Background(), second, classID, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlisted, res.Outcome)
	assert.Equal(t, model.StatusWaitlisted, res.Booking.Status)

	// Waitlist entries touch neither seats nor the ledger.
	assert.Equal(t, 1, store.class(classID).CurrentParticipants)
	assert.Equal(t, 0, store.user(second).SessionsBooked)
}

func TestBookFullClassWithoutCredit(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	_, err := eng.Book(context.Background(), store.addUser(3), classID, false)
	require.NoError(t, err)

	// Joining the waitlist of a full class needs no credit; the balance
	// is settled if and when the member attends.
	broke := store.addUser(0)
	res, err := eng.Book(context.Background(), broke, classID, true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeWaitlisted, res.Outcome)
}

func TestBookSchedulingGuards(t *testing.T) {
	eng, store := newTestEngine(t)
	userID := store.addUser(3)

	_, err := eng.Book(context.Background(), userID, 999, false)
	require.ErrorIs(t, err, ErrClassNotFound)

	inactive := seedClass(store, 5)
	store.mu.Lock()
	store.classes[inactive].IsActive = false
	store.mu.Unlock()
	_, err = eng.Book(context.Background(), userID, inactive, false)
	require.ErrorIs(t, err, ErrClassInactive)

	started := store.addClass(testNow.AddDate(0, 0, -1), "18:00", "19:00", 5)
	_, err = eng.Book(context.Background(), userID, started, false)
	require.ErrorIs(t, err, ErrClassStarted)
}

func TestBookMultipleForSamePair(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	userID := store.addUser(5)

	first, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)
	second, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)

	// Booking twice is allowed; the result surfaces the running count.
	assert.Equal(t, 1, first.LivePair)
	assert.Equal(t, 2, second.LivePair)
	assert.Equal(t, 2, store.class(classID).CurrentParticipants)
	assert.Equal(t, 2, store.user(userID).SessionsBooked)
}

func TestCancelRefundable(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	userID := store.addUser(5)

	res, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)

	out, err := eng.Cancel(context.Background(), res.Booking.ID, userID)
	require.NoError(t, err)
	assert.False(t, out.Penalized)
	assert.Nil(t, out.Promoted)

	assert.Equal(t, model.StatusCancelled, store.booking(res.Booking.ID).Status)
	assert.Equal(t, 0, store.class(classID).CurrentParticipants)
	u := store.user(userID)
	assert.Equal(t, 0, u.SessionsBooked)
	assert.Equal(t, 5, u.SessionsRemaining)
}

func TestCancelPenalized(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	userID := store.addUser(5)

	res, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)

	// 8 hours before an 18:00 class: inside the 12h window.
	eng.Now = func() time.Time { return time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC) }

	out, err := eng.Cancel(context.Background(), res.Booking.ID, userID)
	require.NoError(t, err)
	assert.True(t, out.Penalized)

	u := store.user(userID)
	assert.Equal(t, 0, u.SessionsBooked)
	assert.Equal(t, 4, u.SessionsRemaining, "late cancellation burns one session")
	assert.Equal(t, 0, store.class(classID).CurrentParticipants)
}

func TestCancelWaitlistedIsFree(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	_, err := eng.Book(context.Background(), store.addUser(3), classID, false)
	require.NoError(t, err)

	userID := store.addUser(3)
	res, err := eng.Book(context.Background(), userID, classID, true)
	require.NoError(t, err)

	// Even inside the window, leaving the waitlist carries no penalty.
	eng.Now = func() time.Time { return time.Date(2025, 3, 11, 17, 0, 0, 0, time.UTC) }
	out, err := eng.Cancel(context.Background(), res.Booking.ID, userID)
	require.NoError(t, err)
	assert.False(t, out.Penalized)
	assert.Equal(t, 3, store.user(userID).SessionsRemaining)
	assert.Equal(t, 1, store.class(classID).CurrentParticipants)
}

func TestCancelGuards(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	owner := store.addUser(5)
	stranger := store.addUser(5)

	res, err := eng.Book(context.Background(), owner, classID, false)
	require.NoError(t, err)

	_, err = eng.Cancel(context.Background(), res.Booking.ID, stranger)
	require.ErrorIs(t, err, ErrNotOwner)

	_, err = eng.Cancel(context.Background(), res.Booking.ID, owner)
	require.NoError(t, err)
	_, err = eng.Cancel(context.Background(), res.Booking.ID, owner)
	require.ErrorIs(t, err, ErrAlreadyFinal)

	// A failed cancel must not have leaked ledger or seat changes.
	assert.Equal(t, 0, store.user(stranger).SessionsBooked)
	assert.Equal(t, 0, store.class(classID).CurrentParticipants)
}

func TestCancelAfterStart(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	userID := store.addUser(5)

	res, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)

	eng.Now = func() time.Time { return time.Date(2025, 3, 11, 18, 30, 0, 0, time.UTC) }
	_, err = eng.Cancel(context.Background(), res.Booking.ID, userID)
	require.ErrorIs(t, err, ErrClassStarted)

	// The studio can still pull a no-show after start, penalty-free.
	out, err := eng.RemoveParticipant(context.Background(), classID, res.Booking.ID)
	require.NoError(t, err)
	assert.False(t, out.Penalized)
	assert.Equal(t, 5, store.user(userID).SessionsRemaining)
}

func TestCancelPromotesWaitlistFIFO(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	holder := store.addUser(3)
	first := store.addUser(3)
	second := store.addUser(3)

	held, err := eng.Book(context.Background(), holder, classID, false)
	require.NoError(t, err)
	w1, err := eng.Book(context.Background(), first, classID, true)
	require.NoError(t, err)
	w2, err := eng.Book(context.Background(), second, classID, true)
	require.NoError(t, err)

	out, err := eng.Cancel(context.Background(), held.Booking.ID, holder)
	require.NoError(t, err)
	require.NotNil(t, out.Promoted)
	assert.Equal(t, w1.Booking.ID, out.Promoted.ID, "promotion is strictly FIFO")

	assert.Equal(t, model.StatusConfirmed, store.booking(w1.Booking.ID).Status)
	assert.Equal(t, model.StatusWaitlisted, store.booking(w2.Booking.ID).Status)
	assert.Equal(t, 1, store.class(classID).CurrentParticipants)
	assert.Equal(t, 1, store.user(first).SessionsBooked, "promotion charges the reservation, not a session")
}

func TestPromotionIgnoresCreditBalance(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	holder := store.addUser(3)
	broke := store.addUser(0)

	held, err := eng.Book(context.Background(), holder, classID, false)
	require.NoError(t, err)
	_, err = eng.Book(context.Background(), broke, classID, true)
	require.NoError(t, err)

	out, err := eng.Cancel(context.Background(), held.Booking.ID, holder)
	require.NoError(t, err)
	require.NotNil(t, out.Promoted)
	assert.Equal(t, broke, out.Promoted.UserID)
}

func TestCompleteClass(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	attendee := store.addUser(5)
	waitUser := store.addUser(5)

	full := seedClass(store, 0) // zero capacity forces the waitlist

	booked, err := eng.Book(context.Background(), attendee, classID, false)
	require.NoError(t, err)
	waitlisted, err := eng.Book(context.Background(), waitUser, full, true)
	require.NoError(t, err)

	eng.Now = func() time.Time { return time.Date(2025, 3, 11, 19, 30, 0, 0, time.UTC) }

	results := eng.CompleteClass(context.Background(), classID, []uint64{
		booked.Booking.ID,
		waitlisted.Booking.ID, // wrong class and not confirmed
		424242,                // unknown
	})
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, ErrBookingNotFound)

	done := store.booking(booked.Booking.ID)
	assert.Equal(t, model.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	u := store.user(attendee)
	assert.Equal(t, 4, u.SessionsRemaining)
	assert.Equal(t, 0, u.SessionsBooked)
	assert.Equal(t, 1, u.ClassesAttended)
	assert.Equal(t, 0, store.class(classID).CurrentParticipants, "a completed booking frees its seat")
}

func TestCompleteTwice(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 5)
	userID := store.addUser(5)

	res, err := eng.Book(context.Background(), userID, classID, false)
	require.NoError(t, err)

	first := eng.CompleteClass(context.Background(), classID, []uint64{res.Booking.ID})
	require.NoError(t, first[0].Err)
	second := eng.CompleteClass(context.Background(), classID, []uint64{res.Booking.ID})
	require.ErrorIs(t, second[0].Err, ErrAlreadyFinal)

	// The second attempt must not move the ledger again.
	assert.Equal(t, 4, store.user(userID).SessionsRemaining)
	assert.Equal(t, 1, store.user(userID).ClassesAttended)
}

func TestCompleteWaitlisted(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	_, err := eng.Book(context.Background(), store.addUser(3), classID, false)
	require.NoError(t, err)
	res, err := eng.Book(context.Background(), store.addUser(3), classID, true)
	require.NoError(t, err)

	results := eng.CompleteClass(context.Background(), classID, []uint64{res.Booking.ID})
	require.ErrorIs(t, results[0].Err, ErrNotConfirmed)
}

func TestAddParticipantSkipsCreditCheck(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	broke := store.addUser(0)

	res, err := eng.AddParticipant(context.Background(), classID, broke, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, 1, store.user(broke).SessionsBooked)

	// Capacity still binds: a second walk-in gets the full answer.
	other := store.addUser(0)
	res, err = eng.AddParticipant(context.Background(), classID, other, false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFull, res.Outcome)
}

func TestRemoveParticipantPromotes(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 1)
	holder := store.addUser(3)
	waiting := store.addUser(3)

	held, err := eng.Book(context.Background(), holder, classID, false)
	require.NoError(t, err)
	_, err = eng.Book(context.Background(), waiting, classID, true)
	require.NoError(t, err)

	out, err := eng.RemoveParticipant(context.Background(), classID, held.Booking.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Promoted)
	assert.Equal(t, waiting, out.Promoted.UserID)

	// Booking from another class is invisible to RemoveParticipant.
	otherClass := seedClass(store, 5)
	res, err := eng.Book(context.Background(), holder, otherClass, false)
	require.NoError(t, err)
	_, err = eng.RemoveParticipant(context.Background(), classID, res.Booking.ID)
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelClass(t *testing.T) {
	eng, store := newTestEngine(t)
	classID := seedClass(store, 2)
	a := store.addUser(3)
	b := store.addUser(3)
	c := store.addUser(3)

	ba, err := eng.Book(context.Background(), a, classID, false)
	require.NoError(t, err)
	bb, err := eng.Book(context.Background(), b, classID, false)
	require.NoError(t, err)
	bc, err := eng.Book(context.Background(), c, classID, true)
	require.NoError(t, err)

	n, err := eng.CancelClass(context.Background(), classID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, id := range []uint64{ba.Booking.ID, bb.Booking.ID, bc.Booking.ID} {
		assert.Equal(t, model.StatusCancelled, store.booking(id).Status)
	}
	cls := store.class(classID)
	assert.False(t, cls.IsActive)
	assert.Equal(t, 0, cls.CurrentParticipants)

	// Studio cancellations are penalty-free for everyone.
	assert.Equal(t, 3, store.user(a).SessionsRemaining)
	assert.Equal(t, 0, store.user(a).SessionsBooked)
	assert.Equal(t, 0, store.user(c).SessionsBooked, "waitlisted had nothing to refund")
}

func TestConcurrentBookingNeverOversells(t *testing.T) {
	eng, store := newTestEngine(t)
	const seats = 5
	const members = 20
	classID := seedClass(store, seats)

	userIDs := make([]uint64, members)
	for i := range userIDs {
		userIDs[i] = store.addUser(3)
	}

	var wg sync.WaitGroup
	outcomes := make([]Outcome, members)
	for i, uid := range userIDs {
		wg.Add(1)
		go func(i int, uid uint64) {
			defer wg.Done()
			res, err := eng.Book(context.Background(), uid, classID, true)
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i, uid)
	}
	wg.Wait()

	confirmed, waitlisted := 0, 0
	for _, o := range outcomes {
		switch o {
		case OutcomeConfirmed:
			confirmed++
		case OutcomeWaitlisted:
			waitlisted++
		}
	}
	assert.Equal(t, seats, confirmed)
	assert.Equal(t, members-seats, waitlisted)
	assert.Equal(t, seats, store.class(classID).CurrentParticipants)
}

func TestConcurrentCancelPromotesEachSeatOnce(t *testing.T) {
	eng, store := newTestEngine(t)
	const seats = 3
	classID := seedClass(store, seats)

	holders := make([]uint64, seats)
	held := make([]uint64, seats)
	for i := range holders {
		holders[i] = store.addUser(3)
		res, err := eng.Book(context.Background(), holders[i], classID, false)
		require.NoError(t, err)
		held[i] = res.Booking.ID
	}
	for i := 0; i < seats; i++ {
		_, err := eng.Book(context.Background(), store.addUser(3), classID, true)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := range held {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := eng.Cancel(context.Background(), held[i], holders[i])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every freed seat went to exactly one waitlisted booking.
	assert.Equal(t, seats, store.class(classID).CurrentParticipants)
	confirmed := 0
	store.mu.Lock()
	for _, b := range store.bookings {
		if b.ClassID == classID && b.Status == model.StatusConfirmed {
			confirmed++
		}
	}
	store.mu.Unlock()
	assert.Equal(t, seats, confirmed)
}
