package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/frameextractor/frameextractor/internal/logging"
	"github.com/frameextractor/frameextractor/internal/server/accounts"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	if err := s.accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "user registered successfully"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	token, err := s.accounts.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"access_token": token, "token_type": "bearer"})
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.accounts.List(c.Request().Context())
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("list users", "error", err)
		return httpError(err)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleActivate(c echo.Context) error {
	return s.setStatus(c, accounts.StatusActive, "activated")
}

func (s *Server) handleDeactivate(c echo.Context) error {
	return s.setStatus(c, accounts.StatusInactive, "deactivated")
}

func (s *Server) setStatus(c echo.Context, status, verb string) error {
	username := c.Param("username")
	if err := s.accounts.SetStatus(c.Request().Context(), username, status); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": fmt.Sprintf("user %s %s successfully", username, verb)})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	if err := s.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password recovery email sent successfully"})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new_password is required")
	}

	if err := s.accounts.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password reset successfully"})
}
