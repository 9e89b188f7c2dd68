package handlers

import (
	"context"
	"net/http"
	"os"
	"time"
)

const version = "0.1.0"

// Check represents the status of a health check.
type Check struct {
	Status  string `json:"status"`            // "pass", "fail" or "skipped"
	Latency string `json:"latency,omitempty"` // e.g., "2ms"
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string           `json:"status"` // "healthy" or "degraded"
	Version   string           `json:"version"`
	Instance  string           `json:"instance"`
	Uptime    string           `json:"uptime"`
	Rooms     int              `json:"rooms"`
	Checks    map[string]Check `json:"checks"`
	Timestamp string           `json:"timestamp"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health handles the health check endpoint. Stores that are not configured
// are skipped; the relay itself has no external dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]Check)
	allHealthy := true

	probe := func(name string, p pinger) {
		start := time.Now()
		if err := p.Ping(ctx); err != nil {
			checks[name] = Check{Status: "fail", Message: "connection failed"}
			allHealthy = false
			return
		}
		checks[name] = Check{Status: "pass", Latency: time.Since(start).String()}
	}

	if h.redis != nil {
		probe("redis", h.redis)
	} else {
		checks["redis"] = Check{Status: "skipped", Message: "not configured"}
	}

	if h.activity != nil {
		probe(h.activity.Driver(), h.activity)
	} else {
		checks["database"] = Check{Status: "skipped", Message: "not configured"}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	instance := os.Getenv("FLY_ALLOC_ID")
	if instance == "" {
		instance = h.instanceID
	}

	h.JSON(w, statusCode, HealthResponse{
		Status:    status,
		Version:   version,
		Instance:  instance,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Rooms:     h.relay.Registry().Len(),
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// RootResponse represents the root endpoint response.
type RootResponse struct {
	Status string `json:"status"`
}

// Root handles the liveness endpoint.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.JSON(w, http.StatusOK, RootResponse{
		Status: "Cerebrus server is running",
	})
}
