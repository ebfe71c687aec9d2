// Package server initializes and runs the frame-extraction application:
// identity directory, archive store, notification dispatch, and the
// public HTTP endpoint, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/frameextractor/frameextractor/internal/cryptox"
	"github.com/frameextractor/frameextractor/internal/logging"
	"github.com/frameextractor/frameextractor/internal/server/accounts"
	"github.com/frameextractor/frameextractor/internal/server/archives"
	"github.com/frameextractor/frameextractor/internal/server/auth"
	"github.com/frameextractor/frameextractor/internal/server/awsx"
	"github.com/frameextractor/frameextractor/internal/server/config"
	"github.com/frameextractor/frameextractor/internal/server/frames"
	"github.com/frameextractor/frameextractor/internal/server/httpserver"
	"github.com/frameextractor/frameextractor/internal/server/mailer"
	"github.com/frameextractor/frameextractor/internal/server/migrations"
)

const (
	adminUsername = "administrator"
	adminEmail    = "administrator@email.com"
)

type App struct {
	config     *config.Config
	logger     *slog.Logger
	server     *httpserver.Server
	dispatcher *mailer.Dispatcher
	db         *sql.DB
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	app := &App{config: cfg, logger: logger}

	repo, err := app.initDirectory(ctx)
	if err != nil {
		return nil, err
	}

	s3c, err := awsx.NewS3(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 client init error: %w", err)
	}
	if err := ensureArchiveBucket(ctx, s3c, cfg); err != nil {
		return nil, err
	}
	store := archives.NewStore(s3c, cfg.S3Bucket, cfg.S3PublicURL)

	sesc, err := awsx.NewSES(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ses client init error: %w", err)
	}
	if err := ensureSenderIdentity(ctx, sesc, cfg.SenderEmail); err != nil {
		return nil, err
	}
	mail := mailer.NewSESMailer(sesc, cfg.SenderEmail)

	app.dispatcher = mailer.NewDispatcher(logger)

	tokens := auth.NewTokenService(cfg.SecretKey,
		cfg.AccessTokenValidityDuration, cfg.ResetTokenValidityDuration)
	cipher := cryptox.NewEmailCipher(cfg.EmailSecretKey)

	acc := accounts.NewService(repo, tokens, cipher, mail, app.dispatcher, cfg.FrontendURL)
	if err := acc.EnsureAdmin(ctx, adminUsername, adminEmail, cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap administrator: %w", err)
	}

	transcoder := frames.NewFFmpeg(cfg.FFmpegPath, cfg.TranscodeTimeout)
	fr := frames.NewService(store, acc, mail, app.dispatcher, transcoder, cfg.MaxUploadBytes)

	app.server = httpserver.NewServer(acc, fr, store, tokens, logger)

	return app, nil
}

// initDirectory builds the identity-directory repository selected by
// the configuration.
func (app *App) initDirectory(ctx context.Context) (accounts.Repository, error) {
	switch app.config.DirectoryBackend {
	case config.BackendPostgres:
		db, err := sql.Open("pgx", app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		goose.SetBaseFS(migrations.Migrations)
		if err := goose.UpContext(ctx, db, "."); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		app.db = db
		return accounts.NewPostgresRepository(db), nil

	case config.BackendMemory:
		return accounts.NewInMemoryRepository(), nil

	case config.BackendDynamo:
		client, err := awsx.NewDynamo(ctx, app.config)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client init error: %w", err)
		}
		if err := ensureAccountsTable(ctx, client, app.config.DynamoTable); err != nil {
			return nil, err
		}
		return accounts.NewDynamoRepository(client, app.config.DynamoTable), nil

	default:
		return nil, fmt.Errorf("unknown directory backend %q", app.config.DirectoryBackend)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives,
// then shuts down the endpoint and drains pending notifications.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting http endpoint", "addr", app.config.EndpointAddr)
		if err := app.server.Start(app.config.EndpointAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.shutdown()
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown", "error", err)
	}

	app.shutdown()
	app.logger.Info("shutdown complete")
	return nil
}

func (app *App) shutdown() {
	app.dispatcher.Close()
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("db close", "error", err)
		}
	}
}
