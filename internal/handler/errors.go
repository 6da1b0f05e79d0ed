package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/gateway"
	"github.com/iliyamo/conference-commerce/internal/middleware"
	"github.com/iliyamo/conference-commerce/internal/repository"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// authedUser extracts the authenticated user id set by the JWT
// middleware.  A zero id means the middleware did not run or the
// token carried no usable subject; handlers reply 401 in that case.
func authedUser(c echo.Context) (uint64, bool) {
	id := middleware.UserID(c)
	return id, id != 0
}

// writeErr translates errors from the service and repository layers
// into HTTP responses.  Sentinel errors map to specific status codes;
// anything unrecognized is reported as a generic 500 so that internal
// details never leak to clients.
func writeErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, service.ErrUnknownProvider):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown payment provider"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats are already taken"})
	case errors.Is(err, repository.ErrInsufficientStock):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient stock"})
	case errors.Is(err, repository.ErrQuotaExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat quota exceeded"})
	case errors.Is(err, repository.ErrInsufficientBalance):
		return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient wallet balance"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "status transition not allowed"})
	case errors.Is(err, repository.ErrDuplicateNotification):
		return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate notification"})
	case errors.Is(err, service.ErrInvalidSeat):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat reference"})
	case errors.Is(err, service.ErrNotPayable):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order is not payable"})
	case errors.Is(err, service.ErrAmountMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount does not match order total"})
	case errors.Is(err, service.ErrAmountRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount_cents is required for wallet top-ups"})
	case errors.Is(err, gateway.ErrInvalidSignature):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	case errors.Is(err, gateway.ErrMissingField):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notification missing required field"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
