package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel comparisons for booking failures
	"net/http"
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/condortrails/tour-booking-api/internal/booking"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses the :id path parameter as a positive uint64.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bookingError maps capacity manager errors onto HTTP responses so the
// reserve, confirm and cancel endpoints answer consistently.  Unknown
// errors become a generic 500.
func bookingError(c echo.Context, err error) error {
	var capErr *booking.CapacityError
	switch {
	case errors.As(err, &capErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":           "not enough seats available",
			"available_seats": capErr.Available,
		})
	case errors.Is(err, booking.ErrTourNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	case errors.Is(err, booking.ErrDepartureNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
	case errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrDepartureMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure does not belong to tour"})
	case errors.Is(err, booking.ErrInvalidPartySize):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be a positive integer"})
	case errors.Is(err, booking.ErrInvalidStateTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation state does not allow this operation"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking operation failed"})
}
