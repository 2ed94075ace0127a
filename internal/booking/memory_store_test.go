package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// memStore is the in-memory Store the engine tests run against. A
// single mutex serializes transactions and a snapshot taken at begin
// provides rollback; that gives the same isolation the MySQL store
// gets from its row locks.
type memStore struct {
	mu       sync.Mutex
	users    map[uint64]*model.User
	classes  map[uint64]*model.Class
	bookings map[uint64]*model.Booking
	nextID   uint64
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uint64]*model.User{},
		classes:  map[uint64]*model.Class{},
		bookings: map[uint64]*model.Booking{},
		nextID:   1,
	}
}

func (s *memStore) addUser(remaining int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.users[id] = &model.User{ID: id, Role: "MEMBER", SessionsRemaining: remaining, IsActive: true}
	return id
}

func (s *memStore) addClass(date time.Time, start, end string, max int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.classes[id] = &model.Class{
		ID:              id,
		Title:           "test class",
		ClassDate:       date,
		StartTime:       start,
		EndTime:         end,
		MaxParticipants: max,
		IsActive:        true,
	}
	return id
}

func (s *memStore) user(id uint64) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[id]
}

func (s *memStore) class(id uint64) model.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.classes[id]
}

func (s *memStore) booking(id uint64) model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.bookings[id]
}

type memSnapshot struct {
	users    map[uint64]*model.User
	classes  map[uint64]*model.Class
	bookings map[uint64]*model.Booking
	nextID   uint64
}

func (s *memStore) clone() memSnapshot {
	snap := memSnapshot{
		users:    make(map[uint64]*model.User, len(s.users)),
		classes:  make(map[uint64]*model.Class, len(s.classes)),
		bookings: make(map[uint64]*model.Booking, len(s.bookings)),
		nextID:   s.nextID,
	}
	for id, u := range s.users {
		cp := *u
		snap.users[id] = &cp
	}
	for id, c := range s.classes {
		cp := *c
		snap.classes[id] = &cp
	}
	for id, b := range s.bookings {
		cp := *b
		snap.bookings[id] = &cp
	}
	return snap
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.users = snap.users
		s.classes = snap.classes
		s.bookings = snap.bookings
		s.nextID = snap.nextID
		return err
	}
	return nil
}

// memTx operates directly on the store maps; the store mutex is held
// for the whole transaction.
type memTx struct{ s *memStore }

func (t *memTx) ClassForUpdate(ctx context.Context, classID uint64) (*model.Class, error) {
	c, ok := t.s.classes[classID]
	if !ok {
		return nil, ErrClassNotFound
	}
	cp := *c
	return &cp, nil
}

func (t *memTx) UserForUpdate(ctx context.Context, userID uint64) (*model.User, error) {
	u, ok := t.s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) BookingForUpdate(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, ok := t.s.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	b.ID = t.s.nextID
	t.s.nextID++
	cp := *b
	t.s.bookings[b.ID] = &cp
	return nil
}

func (t *memTx) SetBookingStatus(ctx context.Context, bookingID uint64, from, to string, completedAt *time.Time) (bool, error) {
	b, ok := t.s.bookings[bookingID]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	b.CompletedAt = completedAt
	return true, nil
}

func (t *memTx) CountLiveForPair(ctx context.Context, userID, classID uint64) (int, error) {
	n := 0
	for _, b := range t.s.bookings {
		if b.UserID == userID && b.ClassID == classID && b.Live() {
			n++
		}
	}
	return n, nil
}

func (t *memTx) liveSorted(classID uint64, status string) []model.Booking {
	out := make([]model.Booking, 0)
	for _, b := range t.s.bookings {
		if b.ClassID != classID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		if status == "" && !b.Live() {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *memTx) LiveBookingsForClass(ctx context.Context, classID uint64) ([]model.Booking, error) {
	return t.liveSorted(classID, ""), nil
}

func (t *memTx) OldestWaitlistedForUpdate(ctx context.Context, classID uint64) (*model.Booking, error) {
	wl := t.liveSorted(classID, model.StatusWaitlisted)
	if len(wl) == 0 {
		return nil, nil
	}
	return &wl[0], nil
}

func (t *memTx) ClaimSeat(ctx context.Context, classID uint64) (bool, error) {
	c, ok := t.s.classes[classID]
	if !ok {
		return false, ErrClassNotFound
	}
	if c.CurrentParticipants >= c.MaxParticipants {
		return false, nil
	}
	c.CurrentParticipants++
	return true, nil
}

func (t *memTx) ReleaseSeat(ctx context.Context, classID uint64) error {
	c, ok := t.s.classes[classID]
	if !ok {
		return ErrClassNotFound
	}
	if c.CurrentParticipants > 0 {
		c.CurrentParticipants--
	}
	return nil
}

func (t *memTx) ResetSeats(ctx context.Context, classID uint64) error {
	c, ok := t.s.classes[classID]
	if !ok {
		return ErrClassNotFound
	}
	c.CurrentParticipants = 0
	return nil
}

func (t *memTx) DeactivateClass(ctx context.Context, classID uint64) error {
	c, ok := t.s.classes[classID]
	if !ok {
		return ErrClassNotFound
	}
	c.IsActive = false
	return nil
}

func clampAdd(v, d int) int {
	if v += d; v > 0 {
		return v
	}
	return 0
}

func (t *memTx) AdjustCredits(ctx context.Context, userID uint64, d CreditDelta) error {
	u, ok := t.s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.SessionsRemaining = clampAdd(u.SessionsRemaining, d.Remaining)
	u.SessionsBooked = clampAdd(u.SessionsBooked, d.Booked)
	u.ClassesAttended = clampAdd(u.ClassesAttended, d.Attended)
	return nil
}
