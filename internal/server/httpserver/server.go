// Package httpserver exposes the account and frame-extraction services
// over a REST API secured with bearer tokens.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/frameextractor/frameextractor/internal/server/accounts"
	"github.com/frameextractor/frameextractor/internal/server/auth"
	"github.com/frameextractor/frameextractor/internal/server/frames"
)

// ArchiveStore is the slice of the archive storage the route layer
// needs for listing and deleting a user's archives.
type ArchiveStore interface {
	List(ctx context.Context, username string) ([]string, error)
	Delete(ctx context.Context, username, filename string) error
}

type Server struct {
	echo     *echo.Echo
	accounts *accounts.Service
	frames   *frames.Service
	archives ArchiveStore
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewServer(acc *accounts.Service, fr *frames.Service, arch ArchiveStore,
	tokens *auth.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		accounts: acc,
		frames:   fr,
		archives: arch,
		tokens:   tokens,
		logger:   logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(s.requestLogger)

	s.echo = e
	s.register(e)

	return s
}

func (s *Server) register(e *echo.Echo) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.POST("/forgot-password", s.handleForgotPassword)
	api.POST("/reset-password", s.handleResetPassword)

	users := api.Group("/users", s.authenticated, s.adminOnly)
	users.GET("", s.handleListUsers)
	users.POST("/:username/activate", s.handleActivate)
	users.POST("/:username/deactivate", s.handleDeactivate)

	authed := api.Group("", s.authenticated)
	authed.POST("/process-video", s.handleProcessVideo)
	authed.GET("/:username/list-frame-archives", s.handleListArchives, s.pathOwnerOnly)
	authed.DELETE("/:username/delete-frame-archive/:filename", s.handleDeleteArchive, s.pathOwnerOnly)
}

// Start blocks serving requests until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s.echo.StartServer(srv)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
