package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"

	"github.com/chetan5734v/freelancer/internal/api"
	"github.com/chetan5734v/freelancer/internal/auth"
	"github.com/chetan5734v/freelancer/internal/config"
	"github.com/chetan5734v/freelancer/internal/eligibility"
	"github.com/chetan5734v/freelancer/internal/handlers"
	"github.com/chetan5734v/freelancer/internal/jobs"
	"github.com/chetan5734v/freelancer/internal/notify"
	"github.com/chetan5734v/freelancer/internal/relay"
	"github.com/chetan5734v/freelancer/internal/store"
	"github.com/chetan5734v/freelancer/internal/token"
	"github.com/chetan5734v/freelancer/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Durable entity store: Postgres when configured, SQLite fallback
	// for development.
	var dataStore store.DataStore
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		var pgStore *store.PostgresStore
		err := retry.Do(
			func() error {
				var dialErr error
				pgStore, dialErr = store.NewPostgresStore(ctx, cfg.DatabaseURL)
				return dialErr
			},
			retry.Attempts(5),
			retry.Delay(time.Second),
			retry.MaxDelay(30*time.Second),
			retry.Context(ctx),
			retry.OnRetry(func(n uint, err error) {
				logger.Warn().Uint("attempt", n+1).Err(err).Msg("postgres connection failed, retrying")
			}),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		dataStore = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		dataStore = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite store")
	}
	defer dataStore.Close()

	// Message threads live in Redis.
	var redisStore *store.RedisStore
	err := retry.Do(
		func() error {
			var dialErr error
			redisStore, dialErr = store.NewRedisStore(ctx, cfg.RedisURL)
			return dialErr
		},
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Uint("attempt", n+1).Err(err).Msg("redis connection failed, retrying")
		}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisStore.Close()
	logger.Info().Msg("connected to Redis")

	// Wire the services.
	authMgr := auth.NewManager(cfg.JWTSecret)
	hub := ws.NewHub(logger)
	tokenSvc := token.NewService(dataStore)
	notifier := notify.New(dataStore, hub, logger)
	jobSvc := jobs.NewService(dataStore, tokenSvc, notifier, hub, logger)
	engine := eligibility.NewEngine(dataStore, logger)
	rel := relay.New(redisStore, jobSvc, engine, notifier, hub, logger)

	h := handlers.NewHandler(dataStore, redisStore, tokenSvc, jobSvc, engine, notifier, authMgr, hub, rel, logger)
	router := api.NewRouter(logger, h, authMgr, cfg.CORSOrigin)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting freelancer messaging server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
