package handler // handler defines http handlers

import (
	"errors"   // errors provides Is comparisons against model sentinels
	"net/http" // HTTP status codes
	"strconv"  // strconv converts path parameters to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/olzhasov/ticketbot/internal/model" // model holds the domain sentinels
)

// parseID converts a path parameter into a non-zero uint64.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// respondErr translates a repository error into the JSON error shape
// every endpoint shares.  Sentinels map to 4xx; anything unrecognized
// is a 500 with a generic message so internals never leak to clients.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrEventNotFound),
		errors.Is(err, model.ErrReservationNotFound),
		errors.Is(err, model.ErrGuestNotFound),
		errors.Is(err, model.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInsufficientInventory),
		errors.Is(err, model.ErrSoldOut):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrImmutableReservation),
		errors.Is(err, model.ErrUserBlocked):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrAttendeeCountMismatch),
		errors.Is(err, model.ErrInvalidGender),
		errors.Is(err, model.ErrInvalidFieldValue):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
