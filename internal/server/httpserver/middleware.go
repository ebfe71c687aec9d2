package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/frameextractor/frameextractor/internal/logging"
	"github.com/frameextractor/frameextractor/internal/server/accounts"
)

const (
	ctxUsername = "username"
	ctxRole     = "role"

	bearerScheme = "Bearer "
)

// requestLogger attaches a request-scoped logger to the request context
// so services log with the request id.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reqID := c.Response().Header().Get(echo.HeaderXRequestID)
		l := s.logger.With("request_id", reqID, "method", c.Request().Method, "path", c.Path())
		ctx := logging.IntoContext(c.Request().Context(), l)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// authenticated requires a valid bearer token and stores its subject
// and role on the echo context.
func (s *Server) authenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, bearerScheme)
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(ctxUsername, claims.Subject)
		c.Set(ctxRole, claims.Role)
		return next(c)
	}
}

// adminOnly runs after authenticated and additionally checks the role.
func (s *Server) adminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(ctxRole).(string)
		if role != accounts.RoleAdministrator {
			return echo.NewHTTPError(http.StatusForbidden, "administrator role required")
		}
		return next(c)
	}
}

// pathOwnerOnly restricts routes with a :username path segment to the
// token subject itself. Administrators get no bypass here; archive
// routes are strictly per-owner.
func (s *Server) pathOwnerOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, _ := c.Get(ctxUsername).(string)
		if caller == "" || caller != pathUsername(c) {
			return echo.NewHTTPError(http.StatusForbidden, "not authorized to access this user's archives")
		}
		return next(c)
	}
}

// pathUsername normalizes the :username path segment the same way the
// directory normalizes usernames, so casing in the URL never breaks the
// owner check or the storage prefix.
func pathUsername(c echo.Context) string {
	return strings.ToLower(strings.TrimSpace(c.Param("username")))
}
