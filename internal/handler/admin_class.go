package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// AdminClassHandler covers class administration: create, reschedule,
// cancel and roster inspection.
type AdminClassHandler struct {
	Engine  *booking.Engine
	Classes *repository.ClassRepo
	Loc     *time.Location
}

func NewAdminClassHandler(e *booking.Engine, classes *repository.ClassRepo, loc *time.Location) *AdminClassHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &AdminClassHandler{Engine: e, Classes: classes, Loc: loc}
}

type classReq struct {
	Title           string `json:"title"`
	ClassDate       string `json:"class_date"` // YYYY-MM-DD
	StartTime       string `json:"start_time"` // HH:MM
	EndTime         string `json:"end_time"`   // HH:MM
	MaxParticipants int    `json:"max_participants"`
}

func (r *classReq) validate(loc *time.Location) (time.Time, string) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return time.Time{}, "title required"
	}
	day, err := time.ParseInLocation("2006-01-02", r.ClassDate, loc)
	if err != nil {
		return time.Time{}, "class_date must be YYYY-MM-DD"
	}
	if !validClock(r.StartTime) || !validClock(r.EndTime) {
		return time.Time{}, "start_time/end_time must be HH:MM"
	}
	if r.EndTime <= r.StartTime {
		return time.Time{}, "end_time must be after start_time"
	}
	if r.MaxParticipants < 1 {
		return time.Time{}, "max_participants must be positive"
	}
	return day, ""
}

func validClock(s string) bool {
	if _, err := time.Parse("15:04", s); err == nil {
		return true
	}
	_, err := time.Parse("15:04:05", s)
	return err == nil
}

// Create schedules a new class.
func (h *AdminClassHandler) Create(c echo.Context) error {
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	day, msg := req.validate(h.Loc)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	id, err := h.Classes.Create(ctx, req.Title, day, req.StartTime, req.EndTime, req.MaxParticipants)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create class failed"})
	}
	cls, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toClassResp(cls))
}

// Update reschedules a class. Capacity can grow freely but cannot
// shrink below current occupancy.
func (h *AdminClassHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	day, msg := req.validate(h.Loc)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	if err := h.Classes.Update(ctx, id, req.Title, day, req.StartTime, req.EndTime, req.MaxParticipants); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class missing or capacity below current occupancy"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update class failed"})
	}
	cls, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toClassResp(cls))
}

// Cancel deactivates a class and refunds every confirmed member.
func (h *AdminClassHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	n, err := h.Engine.CancelClass(c.Request().Context(), id)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancelled_bookings": n})
}

// Roster lists every booking for a class including cancelled ones.
func (h *AdminClassHandler) Roster(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Classes.GetByID(ctx, id); err != nil {
		return bookingError(c, err)
	}
	roster, err := h.Classes.Roster(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"roster": roster})
}
