package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/api/middleware"
	"github.com/GAURISHTODI/Cerebrus/internal/handlers"
	"github.com/GAURISHTODI/Cerebrus/internal/relay"
	"github.com/GAURISHTODI/Cerebrus/internal/store"
)

// Options carries the router's dependencies. Only Relay is required.
type Options struct {
	Relay              *relay.Service
	Activity           store.ActivityStore
	Redis              *store.RedisStore
	RateLimitWhitelist []string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024)) // 16KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (no-op without Redis)
	limiter := middleware.NewRateLimiter(opts.Redis.Client(), logger, opts.RateLimitWhitelist)
	r.Use(limiter.Middleware)

	// CORS - fully open, drawing clients connect from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(opts.Relay, opts.Activity, opts.Redis, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/draw/{roomID}", h.Draw)
		r.Get("/poll/{roomID}/{lastMessageID}", h.Poll)
		r.Get("/rooms", h.ListRooms)
		r.Get("/stats", h.Stats)
		r.Get("/stats/{roomID}", h.RoomStats)
	})

	// Unprefixed routes served by the first server version
	r.Post("/draw/{roomID}", h.Draw)
	r.Get("/poll/{roomID}/{lastMessageID}", h.Poll)

	return r
}
