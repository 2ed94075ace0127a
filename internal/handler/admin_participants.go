package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// AdminParticipantHandler manages individual bookings on behalf of the
// studio: walk-ins, removals and post-class attendance settlement.
type AdminParticipantHandler struct {
	Engine  *booking.Engine
	Classes *repository.ClassRepo
}

func NewAdminParticipantHandler(e *booking.Engine, classes *repository.ClassRepo) *AdminParticipantHandler {
	return &AdminParticipantHandler{Engine: e, Classes: classes}
}

type addParticipantReq struct {
	UserID       uint64 `json:"user_id"`
	JoinWaitlist bool   `json:"join_waitlist"`
}

// Add books a member into the class without touching their credit
// balance. Capacity and schedule rules still apply.
func (h *AdminParticipantHandler) Add(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req addParticipantReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	res, err := h.Engine.AddParticipant(c.Request().Context(), classID, req.UserID, req.JoinWaitlist)
	if err != nil {
		return bookingError(c, err)
	}
	if res.Outcome == booking.OutcomeFull {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "class full",
			"message": "class is full; set join_waitlist to queue the member",
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking":    toBookingResp(res.Booking),
		"waitlisted": res.Outcome == booking.OutcomeWaitlisted,
	})
}

// Remove cancels a booking in the class. No penalty applies and the
// waitlist head is promoted if a seat was freed.
func (h *AdminParticipantHandler) Remove(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	bookingID, ok := pathID(c, "booking_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	res, err := h.Engine.RemoveParticipant(c.Request().Context(), classID, bookingID)
	if err != nil {
		return bookingError(c, err)
	}
	out := cancelResp{Cancelled: true}
	if res.Promoted != nil {
		r := toBookingResp(res.Promoted)
		out.Promoted = &r
	}
	return c.JSON(http.StatusOK, out)
}

type completeReq struct {
	BookingIDs []uint64 `json:"booking_ids"`
}

type completeItemResp struct {
	BookingID uint64 `json:"booking_id"`
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Complete settles attendance for the listed bookings. Items are
// independent; the response reports each one so a partial batch can be
// retried without repeating the successes.
func (h *AdminParticipantHandler) Complete(c echo.Context) error {
	classID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req completeReq
	if err := c.Bind(&req); err != nil || len(req.BookingIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_ids required"})
	}

	results := h.Engine.CompleteClass(c.Request().Context(), classID, req.BookingIDs)
	out := make([]completeItemResp, 0, len(results))
	for _, r := range results {
		item := completeItemResp{BookingID: r.BookingID, Completed: r.Err == nil}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": out})
}
