package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-class-booking/internal/model"
)

// BookingRepo provides read access to bookings for listing endpoints.
// All writes go through the engine's transactional Store.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// BookingDetail is a booking joined with its class, shaped for the
// my-bookings listing.
type BookingDetail struct {
	ID          uint64     `json:"id"`
	ClassID     uint64     `json:"class_id"`
	ClassTitle  string     `json:"class_title"`
	ClassDate   string     `json:"class_date"`
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
	Status      string     `json:"status"`
	BookedAt    time.Time  `json:"booked_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	var completed sql.NullTime
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, class_id, status, created_at, completed_at
		 FROM bookings WHERE id = ?`, id).
		Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.CreatedAt, &completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		b.CompletedAt = &t
	}
	return &b, nil
}

// ListByUser returns all of a member's bookings with class details,
// newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.class_id, c.title, c.class_date, c.start_time, c.end_time,
		        b.status, b.created_at, b.completed_at
		 FROM bookings b
		 JOIN classes c ON c.id = b.class_id
		 WHERE b.user_id = ?
		 ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var day time.Time
		var completed sql.NullTime
		if err := rows.Scan(&d.ID, &d.ClassID, &d.ClassTitle, &day, &d.StartTime, &d.EndTime,
			&d.Status, &d.BookedAt, &completed); err != nil {
			return nil, err
		}
		d.ClassDate = day.Format("2006-01-02")
		if completed.Valid {
			t := completed.Time
			d.CompletedAt = &t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
