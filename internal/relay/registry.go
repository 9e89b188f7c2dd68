package relay

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

const seedTimeout = time.Second

// Seeder supplies recently mirrored messages for a room whose queue is
// being created, so strokes survive a restart or reclamation.
type Seeder interface {
	RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error)
}

// Registry maps room ids to their queues. Queues are created on first
// reference. Lookups go through a sync.Map so rooms never share a lock.
type Registry struct {
	rooms    sync.Map // string -> *Queue
	count    atomic.Int64
	capacity int
	idleTTL  time.Duration
	seeder   Seeder
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRegistry creates an empty registry. seeder may be nil.
func NewRegistry(cfg Config, seeder Seeder, logger zerolog.Logger) *Registry {
	cfg = cfg.withDefaults()
	return &Registry{
		capacity: cfg.MaxQueueLength,
		idleTTL:  cfg.IdleTTL,
		seeder:   seeder,
		logger:   logger.With().Str("component", "registry").Logger(),
		now:      time.Now,
	}
}

// GetOrCreate returns the queue for roomID, creating and registering an
// empty one if absent. Concurrent first access yields a single queue.
func (r *Registry) GetOrCreate(roomID string) *Queue {
	v, ok := r.rooms.Load(roomID)
	if !ok {
		var loaded bool
		v, loaded = r.rooms.LoadOrStore(roomID, newQueue(roomID, r.capacity, r.now))
		if !loaded {
			metrics.ActiveRooms.Set(float64(r.count.Add(1)))
		}
	}
	q := v.(*Queue)
	q.seedOnce.Do(func() { r.seed(q) })
	return q
}

// Lookup returns the queue for roomID without creating one.
func (r *Registry) Lookup(roomID string) (*Queue, bool) {
	v, ok := r.rooms.Load(roomID)
	if !ok {
		return nil, false
	}
	return v.(*Queue), true
}

func (r *Registry) seed(q *Queue) {
	if r.seeder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	msgs, err := r.seeder.RecentMessages(ctx, q.roomID, r.capacity)
	if err != nil {
		r.logger.Warn().Err(err).Str("room", q.roomID).Msg("failed to warm room from mirror")
		return
	}
	if n := q.seed(msgs); n > 0 {
		r.logger.Debug().Str("room", q.roomID).Int("messages", n).Msg("room warmed from mirror")
	}
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// Rooms returns the status of every live room, ordered by room id.
func (r *Registry) Rooms() []models.RoomStatus {
	var out []models.RoomStatus
	r.rooms.Range(func(_, v any) bool {
		out = append(out, v.(*Queue).Status())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Sweep reclaims rooms that have no waiting readers and have been idle for
// longer than the idle TTL. It returns the number of rooms removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.idleTTL)
	removed := 0

	r.rooms.Range(func(k, v any) bool {
		q := v.(*Queue)
		q.mu.Lock()
		if q.waiters == 0 && !q.active.After(cutoff) {
			q.retired = true
			if r.rooms.CompareAndDelete(k, q) {
				removed++
			}
		}
		q.mu.Unlock()
		return true
	})

	if removed > 0 {
		metrics.ActiveRooms.Set(float64(r.count.Add(int64(-removed))))
		metrics.RoomsReclaimed.Add(float64(removed))
	}
	return removed
}

// Run sweeps idle rooms at half the idle TTL (minimum 1 second) until ctx
// is cancelled. It returns immediately when reclamation is disabled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := r.Sweep(now); n > 0 {
				r.logger.Debug().Int("count", n).Msg("reclaimed idle rooms")
			}
		}
	}
}
