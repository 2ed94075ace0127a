package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// ClassRepo provides CRUD access to the classes table. Capacity
// counters are never touched here — they belong to the booking engine's
// transactional store — so this repo cannot introduce counter drift.
type ClassRepo struct{ DB *sql.DB }

// NewClassRepo returns a ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{DB: db} }

const classCols = `id, title, class_date, start_time, end_time,
	max_participants, current_participants, is_active, created_at, updated_at`

func scanClass(row interface{ Scan(...any) error }) (*model.Class, error) {
	var c model.Class
	err := row.Scan(&c.ID, &c.Title, &c.ClassDate, &c.StartTime, &c.EndTime,
		&c.MaxParticipants, &c.CurrentParticipants, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a class and returns its generated ID. New classes
// start active with zero participants.
func (r *ClassRepo) Create(ctx context.Context, title string, date time.Time, startTime, endTime string, maxParticipants int) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO classes (title, class_date, start_time, end_time, max_participants, current_participants, is_active)
		 VALUES (?,?,?,?,?,0,1)`,
		title, date.Format("2006-01-02"), startTime, endTime, maxParticipants)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns a class or ErrNotFound.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.Class, error) {
	c, err := scanClass(r.DB.QueryRowContext(ctx,
		`SELECT `+classCols+` FROM classes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListUpcoming returns active classes from today onward, soonest first.
// `today` should be the current date in the studio timezone.
func (r *ClassRepo) ListUpcoming(ctx context.Context, today time.Time) ([]model.Class, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+classCols+` FROM classes
		 WHERE is_active = 1 AND class_date >= ?
		 ORDER BY class_date ASC, start_time ASC`,
		today.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update overwrites the schedule fields of a class. Shrinking
// max_participants below current_participants is rejected by the
// WHERE clause; callers get ErrNotFound in that case and must free
// seats first.
func (r *ClassRepo) Update(ctx context.Context, id uint64, title string, date time.Time, startTime, endTime string, maxParticipants int) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE classes SET title = ?, class_date = ?, start_time = ?, end_time = ?, max_participants = ?
		 WHERE id = ? AND current_participants <= ?`,
		title, date.Format("2006-01-02"), startTime, endTime, maxParticipants, id, maxParticipants)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RosterEntry is one row of a class roster: the booking plus the
// member it belongs to.
type RosterEntry struct {
	BookingID   uint64     `json:"booking_id"`
	UserID      uint64     `json:"user_id"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	BookedAt    time.Time  `json:"booked_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Roster lists every booking for a class with its member, waitlist in
// FIFO position. Cancelled bookings are included so admins can audit.
func (r *ClassRepo) Roster(ctx context.Context, classID uint64) ([]RosterEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.user_id, u.email, b.status, b.created_at, b.completed_at
		 FROM bookings b
		 JOIN users u ON u.id = b.user_id
		 WHERE b.class_id = ?
		 ORDER BY b.created_at ASC, b.id ASC`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RosterEntry, 0)
	for rows.Next() {
		var e RosterEntry
		var completed sql.NullTime
		if err := rows.Scan(&e.BookingID, &e.UserID, &e.Email, &e.Status, &e.BookedAt, &completed); err != nil {
			return nil, err
		}
		if completed.Valid {
			t := completed.Time
			e.CompletedAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// WaitlistCount returns the number of waitlisted bookings for a class.
func (r *ClassRepo) WaitlistCount(ctx context.Context, classID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = ?`,
		classID, model.StatusWaitlisted).Scan(&n)
	return n, err
}
