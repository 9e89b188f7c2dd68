package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GAURISHTODI/Cerebrus/internal/api"
	"github.com/GAURISHTODI/Cerebrus/internal/archive"
	"github.com/GAURISHTODI/Cerebrus/internal/config"
	"github.com/GAURISHTODI/Cerebrus/internal/relay"
	"github.com/GAURISHTODI/Cerebrus/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := newLogger(cfg)
	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Optional stores. The relay works without them, so connection
	// failures are logged and the store is left out.
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		s, err := store.NewRedisStore(connectCtx, cfg.RedisURL, cfg.MaxQueueLength)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("redis unavailable, continuing without stroke mirror")
		} else {
			redisStore = s
			defer redisStore.Close()
			logger.Info().Msg("connected to Redis")
		}
	}

	var activity store.ActivityStore
	switch {
	case cfg.DatabaseURL != "":
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		s, err := store.NewPostgresStore(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("postgres unavailable, continuing without activity store")
		} else {
			activity = s
			logger.Info().Msg("connected to PostgreSQL")
		}
	case cfg.SQLitePath != "":
		s, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite unavailable, continuing without activity store")
		} else {
			activity = s
			logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite activity store")
		}
	}
	if activity != nil {
		defer activity.Close()
	}

	// Archive recorder fans appended strokes out to whichever stores exist.
	var sinks []archive.Sink
	var seeder relay.Seeder
	if redisStore != nil {
		sinks = append(sinks, redisStore)
		seeder = redisStore
	}
	if activity != nil {
		sinks = append(sinks, store.ActivitySink{Store: activity})
	}
	var recorder relay.Recorder
	var rec *archive.Recorder
	if len(sinks) > 0 {
		rec = archive.NewRecorder(cfg.ArchiveBuffer, logger, sinks...)
		recorder = rec
	}

	relayCfg := relay.Config{
		MaxQueueLength: cfg.MaxQueueLength,
		PollTimeout:    cfg.PollTimeout,
		IdleTTL:        cfg.RoomIdleTTL,
	}
	registry := relay.NewRegistry(relayCfg, seeder, logger)
	svc := relay.NewService(registry, relayCfg, recorder, logger)
	go registry.Run(ctx)

	router := api.NewRouter(logger, api.Options{
		Relay:              svc,
		Activity:           activity,
		Redis:              redisStore,
		RateLimitWhitelist: cfg.RateLimitWhitelist,
	})

	// Long polls hold the response open for up to PollTimeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.PollTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Dur("poll_timeout", cfg.PollTimeout).
			Int("max_queue_length", cfg.MaxQueueLength).
			Msg("starting Cerebrus server with HTTP long polling")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Cancelling the base context releases waiting polls so Shutdown
	// does not sit out their full timeout.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	if rec != nil {
		rec.Close()
	}

	logger.Info().Msg("server stopped")
}

// newLogger builds the root logger: console output in development, JSON
// otherwise, plus an optional rotating log file.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}
