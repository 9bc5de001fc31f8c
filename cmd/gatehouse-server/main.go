// Package main is the entry point for the Gatehouse server.
// Gatehouse is a self-hostable user-account web application with
// registration, lockout-protected login, and profile management.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatehouse/internal/config"
	"github.com/prn-tf/gatehouse/internal/handler"
	"github.com/prn-tf/gatehouse/internal/metrics"
	"github.com/prn-tf/gatehouse/internal/pkg/password"
	"github.com/prn-tf/gatehouse/internal/repository"
	"github.com/prn-tf/gatehouse/internal/repository/postgres"
	"github.com/prn-tf/gatehouse/internal/repository/sqlite"
	"github.com/prn-tf/gatehouse/internal/service"
	"github.com/prn-tf/gatehouse/internal/session"
	"github.com/prn-tf/gatehouse/internal/storage"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Gatehouse server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database and user repository
	userRepo, dbHealth, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbHealth.Close()

	// Session store
	sessions, err := openSessionStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	// Avatar storage backend
	avatars, uploadsDir, err := openAvatarBackend(ctx, cfg.Uploads, logger)
	if err != nil {
		return err
	}

	// Services
	m := metrics.New()
	hasher := password.NewHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(userRepo, hasher, service.LockoutPolicy{
		MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
		LockDuration:      cfg.Auth.LockDuration,
	}, m, logger)
	userService := service.NewUserService(userRepo, hasher, m, logger)

	router := handler.NewRouter(handler.RouterConfig{
		AuthService:    authService,
		UserService:    userService,
		Sessions:       sessions,
		Avatars:        avatars,
		Metrics:        m,
		SessionTTL:     cfg.Auth.SessionTTL,
		CookieSecure:   cfg.Auth.CookieSecure,
		MaxUploadBytes: cfg.Uploads.MaxSize,
		UploadsDir:     uploadsDir,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}

// openDatabase connects to the configured database, runs migrations, and
// returns the user repository.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.UserRepository, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), db, nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Path,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			JournalMode:     cfg.JournalMode,
			BusyTimeout:     cfg.BusyTimeout,
			SynchronousMode: cfg.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// openSessionStore returns the Redis session store when enabled,
// otherwise the in-memory store.
func openSessionStore(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (session.Store, error) {
	if cfg.Enabled {
		return session.NewRedisStore(ctx, cfg, logger)
	}
	logger.Info().Msg("using in-memory session store")
	return session.NewMemoryStore(), nil
}

// openAvatarBackend returns the configured avatar storage backend.
// The second return value is the local uploads directory to serve, empty
// for remote backends.
func openAvatarBackend(ctx context.Context, cfg config.UploadsConfig, logger zerolog.Logger) (storage.Backend, string, error) {
	switch cfg.Backend {
	case "s3":
		backend, err := storage.NewS3Backend(ctx, cfg.S3, cfg.MaxSize, logger)
		return backend, "", err
	default:
		backend, err := storage.NewFilesystemBackend(cfg.Dir, cfg.MaxSize, logger)
		if err != nil {
			return nil, "", err
		}
		return backend, backend.Dir(), nil
	}
}

// newLogger builds the root logger from configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
