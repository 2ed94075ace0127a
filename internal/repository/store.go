package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/model"
)

// Store adapts MySQL to the booking engine's storage contract. Row
// locks come from SELECT ... FOR UPDATE; counter updates are single
// conditional or clamped UPDATE statements so the database itself can
// never be talked into a negative balance or an overfull class.
type Store struct{ DB *sql.DB }

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// InTx implements booking.Store. The transaction is rolled back unless
// fn succeeds and the commit goes through.
func (s *Store) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&storeTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type storeTx struct{ tx *sql.Tx }

const bookingCols = `id, user_id, class_id, status, created_at, completed_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var completed sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.CreatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

func (t *storeTx) ClassForUpdate(ctx context.Context, classID uint64) (*model.Class, error) {
	const q = `SELECT id, title, class_date, start_time, end_time,
	                  max_participants, current_participants, is_active, created_at, updated_at
	           FROM classes WHERE id = ? FOR UPDATE`
	var c model.Class
	err := t.tx.QueryRowContext(ctx, q, classID).Scan(
		&c.ID, &c.Title, &c.ClassDate, &c.StartTime, &c.EndTime,
		&c.MaxParticipants, &c.CurrentParticipants, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *storeTx) UserForUpdate(ctx context.Context, userID uint64) (*model.User, error) {
	const q = `SELECT id, email, role, sessions_remaining, sessions_booked, classes_attended, is_active
	           FROM users WHERE id = ? FOR UPDATE`
	var u model.User
	err := t.tx.QueryRowContext(ctx, q, userID).Scan(
		&u.ID, &u.Email, &u.Role, &u.SessionsRemaining, &u.SessionsBooked, &u.ClassesAttended, &u.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *storeTx) BookingForUpdate(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = ? FOR UPDATE`, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	return b, err
}

func (t *storeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO bookings (user_id, class_id, status, created_at) VALUES (?,?,?,?)`,
		b.UserID, b.ClassID, b.Status, b.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (t *storeTx) SetBookingStatus(ctx context.Context, bookingID uint64, from, to string, completedAt *time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		to, completedAt, bookingID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *storeTx) CountLiveForPair(ctx context.Context, userID, classID uint64) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE user_id = ? AND class_id = ? AND status IN (?,?)`,
		userID, classID, model.StatusConfirmed, model.StatusWaitlisted).Scan(&n)
	return n, err
}

func (t *storeTx) LiveBookingsForClass(ctx context.Context, classID uint64) ([]model.Booking, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+bookingCols+` FROM bookings
		 WHERE class_id = ? AND status IN (?,?)
		 ORDER BY created_at ASC, id ASC FOR UPDATE`,
		classID, model.StatusConfirmed, model.StatusWaitlisted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (t *storeTx) OldestWaitlistedForUpdate(ctx context.Context, classID uint64) (*model.Booking, error) {
	// created_at is the FIFO key; id breaks same-second ties.
	b, err := scanBooking(t.tx.QueryRowContext(ctx,
		`SELECT `+bookingCols+` FROM bookings
		 WHERE class_id = ? AND status = ?
		 ORDER BY created_at ASC, id ASC LIMIT 1 FOR UPDATE`,
		classID, model.StatusWaitlisted))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (t *storeTx) ClaimSeat(ctx context.Context, classID uint64) (bool, error) {
	// Conditional increment: the affected-row count is the capacity
	// check. Combined with the class row lock this makes "at most one
	// booking claims the last seat" hold under any interleaving.
	res, err := t.tx.ExecContext(ctx,
		`UPDATE classes SET current_participants = current_participants + 1
		 WHERE id = ? AND current_participants < max_participants`, classID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *storeTx) ReleaseSeat(ctx context.Context, classID uint64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE classes SET current_participants = GREATEST(current_participants - 1, 0)
		 WHERE id = ?`, classID)
	return err
}

func (t *storeTx) ResetSeats(ctx context.Context, classID uint64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE classes SET current_participants = 0 WHERE id = ?`, classID)
	return err
}

func (t *storeTx) DeactivateClass(ctx context.Context, classID uint64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE classes SET is_active = 0 WHERE id = ?`, classID)
	return err
}

func (t *storeTx) AdjustCredits(ctx context.Context, userID uint64, d booking.CreditDelta) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE users SET
		   sessions_remaining = GREATEST(sessions_remaining + ?, 0),
		   sessions_booked    = GREATEST(sessions_booked + ?, 0),
		   classes_attended   = GREATEST(classes_attended + ?, 0)
		 WHERE id = ?`,
		d.Remaining, d.Booked, d.Attended, userID)
	return err
}
