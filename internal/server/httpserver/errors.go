package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frameextractor/frameextractor/internal/common"
)

// httpError maps a domain error onto its transport status. Unrecognized
// errors become an opaque 500; their detail stays in the server log.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, common.ErrUsernameTaken),
		errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, common.ErrInvalidStatus),
		errors.Is(err, common.ErrInvalidOrExpiredToken):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrAccountInactive):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrAccountNotFound),
		errors.Is(err, common.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, common.ErrTranscodeFailed),
		errors.Is(err, common.ErrNoFramesExtracted),
		errors.Is(err, common.ErrStorage):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
