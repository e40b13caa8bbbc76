// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the ECG Hub HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Construct the Ed25519 keypair and token service.
//  7. Wire HTTP handlers.
//  8. Start HTTP(S) server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/ecg-hub/internal/api"
	"github.com/taibuivan/ecg-hub/internal/hub"
	"github.com/taibuivan/ecg-hub/internal/platform/config"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
	"github.com/taibuivan/ecg-hub/internal/platform/migration"
	pgstore "github.com/taibuivan/ecg-hub/internal/platform/postgres"
	redisstore "github.com/taibuivan/ecg-hub/internal/platform/redis"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// sessionSweepInterval is how often expired session rows are purged.
const sessionSweepInterval = 1 * time.Hour

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[ECG Hub] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if level := parseLogLevel(cfg); level != slog.LevelInfo {
		log = newLogger(level)
		slog.SetDefault(log)
		log.Debug("log_level_adjusted", slog.String("level", level.String()))
	}

	log.Info("configuration_loaded",
		slog.String("addr", cfg.ListenAddr()),
		slog.Bool("tls", cfg.TLSEnabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	poolOpts := pgstore.Options{
		MinConns:       cfg.DBPoolMin,
		MaxConns:       cfg.DBPoolMax,
		AcquireTimeout: cfg.AcquireTimeout(),
	}
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL(), poolOpts, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL(), cfg.MigrationPath, log), "run migrations")

	// ── 6. Key Material & Token Service ───────────────────────────────────
	var keys *sec.Keys
	if cfg.PrivateKey != "" {
		keys, err = sec.KeysFromSeedHex(cfg.PrivateKey)
	} else {
		// Ephemeral keypair: every outstanding token dies with this process.
		log.Warn("no HUB_PRIVATE_KEY configured, generating ephemeral keypair")
		keys, err = sec.GenerateKeys()
	}
	must(log, err, "initialize key material")
	log.Info("key_material_ready", slog.String("pubkey", keys.PublicHex))

	tokenService := sec.NewTokenService(keys)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	userRepository := hub.NewUserRepository(pool)
	sessionRepository := hub.NewSessionRepository(pool)
	resetTokenRepository := hub.NewResetTokenRepository(rdb)
	hubService := hub.NewService(userRepository, sessionRepository, resetTokenRepository, tokenService)
	hubHandler := hub.NewHandler(hubService, tokenService)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Hub:       hubHandler,
	}

	server := api.NewServer(appCtx, cfg, log, keys, tokenService, handlers)

	// ── 10. Session Janitor ───────────────────────────────────────────────
	go sweepExpiredSessions(appCtx, hubService, log)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background workers before draining the server.
	appCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger with the hub's global attributes.
func newLogger(level slog.Level) *slog.Logger {
	raw := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}))
	return raw.With(slog.String("app", constants.AppName))
}

// parseLogLevel maps HUB_LOG_LEVEL / HUB_LOG_VERBOSE to a slog level.
func parseLogLevel(cfg *config.Config) slog.Level {
	if cfg.LogVerbose {
		return slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sweepExpiredSessions periodically purges expired rows from the session tables.
func sweepExpiredSessions(appCtx context.Context, service *hub.Service, log *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := service.DeleteExpiredSessions(appCtx)
			if err != nil {
				log.Error("session_sweep_failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				log.Info("session_sweep_completed", slog.Int64("removed", removed))
			}
		case <-appCtx.Done():
			return
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
