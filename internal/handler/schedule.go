package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/model"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// ScheduleHandler serves the public class schedule. These routes sit
// behind the response cache; nothing here writes.
type ScheduleHandler struct {
	Classes *repository.ClassRepo
	Loc     *time.Location
}

func NewScheduleHandler(classes *repository.ClassRepo, loc *time.Location) *ScheduleHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ScheduleHandler{Classes: classes, Loc: loc}
}

type classResp struct {
	ID              uint64 `json:"id"`
	Title           string `json:"title"`
	ClassDate       string `json:"class_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	MaxParticipants int    `json:"max_participants"`
	SeatsLeft       int    `json:"seats_left"`
	WaitlistCount   int    `json:"waitlist_count,omitempty"`
}

func toClassResp(c *model.Class) classResp {
	return classResp{
		ID:              c.ID,
		Title:           c.Title,
		ClassDate:       c.ClassDate.Format("2006-01-02"),
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		MaxParticipants: c.MaxParticipants,
		SeatsLeft:       c.SeatsLeft(),
	}
}

// List returns active classes from today onward in the studio timezone.
func (h *ScheduleHandler) List(c echo.Context) error {
	today := time.Now().In(h.Loc)
	classes, err := h.Classes.ListUpcoming(c.Request().Context(), today)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]classResp, 0, len(classes))
	for i := range classes {
		out = append(out, toClassResp(&classes[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"classes": out})
}

// Get returns one class with its waitlist depth.
func (h *ScheduleHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	ctx := c.Request().Context()
	cls, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return bookingError(c, err)
	}
	resp := toClassResp(cls)
	if n, err := h.Classes.WaitlistCount(ctx, id); err == nil {
		resp.WaitlistCount = n
	}
	return c.JSON(http.StatusOK, resp)
}
