package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error kinds the request boundary knows how to map onto HTTP statuses.
var (
	ErrValidation = errors.New("validation")
	ErrAuth       = errors.New("authentication")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrExternal   = errors.New("external service")
	ErrSignature  = errors.New("invalid signature")
)

func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// JSON maps an error onto the {"error": msg} boundary response.
func JSON(c echo.Context, err error) error {
	return c.JSON(Status(err), echo.Map{"error": err.Error()})
}
