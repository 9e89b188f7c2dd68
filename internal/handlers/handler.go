package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/relay"
	"github.com/GAURISHTODI/Cerebrus/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	relay    *relay.Service
	activity store.ActivityStore // nil when no database is configured
	redis    *store.RedisStore   // nil when Redis is not configured
	logger   zerolog.Logger

	instanceID string
	startedAt  time.Time
}

// NewHandler creates a new Handler. activity and redis may be nil.
func NewHandler(svc *relay.Service, activity store.ActivityStore, redis *store.RedisStore, logger zerolog.Logger) *Handler {
	return &Handler{
		relay:      svc,
		activity:   activity,
		redis:      redis,
		logger:     logger,
		instanceID: uuid.NewString(),
		startedAt:  time.Now(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Debug().Err(err).Msg("failed to write response")
	}
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
