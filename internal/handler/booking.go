package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/middleware"
	"github.com/iliyamo/studio-class-booking/internal/model"
	"github.com/iliyamo/studio-class-booking/internal/queue"
	"github.com/iliyamo/studio-class-booking/internal/repository"
	queue_publisher "github.com/iliyamo/studio-class-booking/internal/service"
)

// BookingHandler exposes the member-facing booking lifecycle.
type BookingHandler struct {
	Engine   *booking.Engine
	Classes  *repository.ClassRepo
	Bookings *repository.BookingRepo
}

func NewBookingHandler(e *booking.Engine, classes *repository.ClassRepo, bookings *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Engine: e, Classes: classes, Bookings: bookings}
}

type createBookingReq struct {
	JoinWaitlist bool `json:"join_waitlist"`
}

type bookingResp struct {
	ID       uint64 `json:"id"`
	ClassID  uint64 `json:"class_id"`
	Status   string `json:"status"`
	BookedAt string `json:"booked_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:       b.ID,
		ClassID:  b.ClassID,
		Status:   b.Status,
		BookedAt: b.CreatedAt.Format(time.RFC3339),
	}
}

// Create books the caller into a class. The class may be full: with
// join_waitlist the booking lands on the waitlist, without it the call
// answers 409 and creates nothing.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req createBookingReq
	_ = c.Bind(&req) // body is optional; absent means no waitlist

	ctx := c.Request().Context()
	res, err := h.Engine.Book(ctx, uid, classID, req.JoinWaitlist)
	if err != nil {
		return bookingError(c, err)
	}

	if res.Outcome == booking.OutcomeFull {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "class full",
			"message": "class is full; retry with join_waitlist to queue for a seat",
		})
	}

	if res.Outcome == booking.OutcomeConfirmed {
		h.publishConfirmed(res.Booking)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":       toBookingResp(res.Booking),
		"bookings_held": res.LivePair,
		"waitlisted":    res.Outcome == booking.OutcomeWaitlisted,
	})
}

type cancelResp struct {
	Cancelled bool         `json:"cancelled"`
	Penalized bool         `json:"penalized"`
	Promoted  *bookingResp `json:"promoted,omitempty"`
}

// Cancel cancels the caller's own booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	res, err := h.Engine.Cancel(c.Request().Context(), bookingID, uid)
	if err != nil {
		return bookingError(c, err)
	}

	out := cancelResp{Cancelled: true, Penalized: res.Penalized}
	if res.Promoted != nil {
		r := toBookingResp(res.Promoted)
		out.Promoted = &r
		h.publishPromoted(res.Promoted)
	}
	return c.JSON(http.StatusOK, out)
}

// ListMine returns the caller's bookings with class details.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": items})
}

// publishConfirmed emits a broker event for a freshly confirmed
// booking. Failures only log; the booking is already committed.
func (h *BookingHandler) publishConfirmed(b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	cls, err := h.Classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return
	}
	_ = queue_publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ClassID:     b.ClassID,
		ClassTitle:  cls.Title,
		ClassDate:   cls.ClassDate.Format("2006-01-02"),
		StartTime:   cls.StartTime,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) publishPromoted(b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	cls, err := h.Classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return
	}
	_ = queue_publisher.PublishWaitlistPromoted(ctx, queue.WaitlistPromotedEvent{
		BookingID:  b.ID,
		UserID:     b.UserID,
		ClassID:    b.ClassID,
		ClassTitle: cls.Title,
		ClassDate:  cls.ClassDate.Format("2006-01-02"),
		StartTime:  cls.StartTime,
		PromotedAt: time.Now().UTC().Format(time.RFC3339),
	})
}
