package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/studio-class-booking/internal/booking"
	"github.com/iliyamo/studio-class-booking/internal/repository"
)

// bookingError translates engine and repository sentinels into a JSON
// error response. Unknown errors become a 500 with a generic message so
// internals never leak to clients.
func bookingError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, booking.ErrClassNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrUserNotFound),
		errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, booking.ErrNotOwner):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, booking.ErrClassInactive),
		errors.Is(err, booking.ErrClassStarted),
		errors.Is(err, booking.ErrAlreadyFinal),
		errors.Is(err, booking.ErrNotConfirmed):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, booking.ErrInsufficientCredit):
		status, msg = http.StatusPaymentRequired, err.Error()
	case errors.Is(err, repository.ErrDuplicate):
		status, msg = http.StatusConflict, err.Error()
	}
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("booking: %v", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// pathID parses a numeric path parameter, answering 400 on garbage.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
