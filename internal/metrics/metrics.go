package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebrus_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Long polls hold requests open, so buckets extend past the poll timeout.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cerebrus_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 20, 25, 30},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	StrokesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerebrus_strokes_appended_total",
			Help: "Total strokes appended to room queues",
		},
	)

	PollsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebrus_polls_completed_total",
			Help: "Total long polls completed",
		},
		[]string{"outcome"}, // "new_messages", "no_new_messages" or "cancelled"
	)

	PollWaiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerebrus_poll_waiters",
			Help: "Long polls currently waiting",
		},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cerebrus_active_rooms",
			Help: "Rooms currently held in memory",
		},
	)

	RoomsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerebrus_rooms_reclaimed_total",
			Help: "Idle rooms removed from memory",
		},
	)

	// Archive metrics
	ArchiveDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cerebrus_archive_dropped_total",
			Help: "Messages dropped because the archive queue was full",
		},
	)

	ArchiveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebrus_archive_errors_total",
			Help: "Archive sink write failures",
		},
		[]string{"sink"},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cerebrus_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cerebrus_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	DatabaseLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cerebrus_database_latency_seconds",
			Help:    "Room activity store query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
		[]string{"driver"},
	)
)
