package relay

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

var (
	ErrEmptyRoomID  = errors.New("room id is required")
	ErrPathRequired = errors.New("path is required")
)

// PollStatus distinguishes a poll that got data from one that timed out.
type PollStatus string

const (
	StatusNewMessages   PollStatus = "new_messages"
	StatusNoNewMessages PollStatus = "no_new_messages"
)

// PollResult is the terminal state of a poll.
type PollResult struct {
	Status          PollStatus       `json:"status"`
	Messages        []models.Message `json:"messages"`
	ServerTimestamp int64            `json:"server_timestamp"` // Unix ms
}

// NoNewMessages returns the empty answer to a poll.
func NoNewMessages() PollResult {
	return PollResult{
		Status:          StatusNoNewMessages,
		Messages:        []models.Message{},
		ServerTimestamp: time.Now().UnixMilli(),
	}
}

// Recorder receives every appended message. Record must not block.
type Recorder interface {
	Record(roomID string, msg models.Message)
}

// Service exposes the two relay operations used by the HTTP layer.
type Service struct {
	registry    *Registry
	pollTimeout time.Duration
	recorder    Recorder
	logger      zerolog.Logger
}

// NewService creates a relay service over registry. recorder may be nil.
func NewService(registry *Registry, cfg Config, recorder Recorder, logger zerolog.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		registry:    registry,
		pollTimeout: cfg.PollTimeout,
		recorder:    recorder,
		logger:      logger.With().Str("component", "relay").Logger(),
	}
}

// Registry returns the room registry backing the service.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Append stores a stroke in roomID's queue and wakes its waiting readers.
// It never blocks on other rooms or on I/O.
func (s *Service) Append(roomID string, payload models.DrawPayload) (models.Message, error) {
	if roomID == "" {
		return models.Message{}, ErrEmptyRoomID
	}
	if payload.Path == nil {
		return models.Message{}, ErrPathRequired
	}
	color, thickness := payload.WithDefaults()

	for {
		q := s.registry.GetOrCreate(roomID)
		msg, ok := q.append(*payload.Path, color, thickness)
		if !ok {
			// Reclaimed between lookup and append; resolve again.
			continue
		}

		metrics.StrokesAppended.Inc()
		if s.recorder != nil {
			s.recorder.Record(roomID, msg)
		}
		s.logger.Debug().Str("room", roomID).Int64("id", msg.ID).Msg("stroke appended")
		return msg, nil
	}
}

// Poll waits for messages in roomID newer than lastSeen. It returns as soon
// as any exist, or an empty result once the poll timeout elapses. Unknown
// rooms are created and behave as empty. If ctx is cancelled first, Poll
// returns ctx.Err().
func (s *Service) Poll(ctx context.Context, roomID string, lastSeen int64) (PollResult, error) {
	if roomID == "" {
		return PollResult{}, ErrEmptyRoomID
	}

	start := time.Now()
	deadline := start.Add(s.pollTimeout)
	log := s.logger.With().
		Str("poll_id", ulid.Make().String()).
		Str("room", roomID).
		Int64("last_seen", lastSeen).
		Logger()

	q := s.join(roomID)
	defer q.leave()

	metrics.PollWaiters.Inc()
	defer metrics.PollWaiters.Dec()

	// Joining a fresh room may wait on the seeder; that time counts
	// against the deadline.
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	log.Debug().Msg("poll started")

	for {
		msgs, wake := q.watch(lastSeen)
		if len(msgs) > 0 {
			metrics.PollsCompleted.WithLabelValues(string(StatusNewMessages)).Inc()
			log.Debug().Int("count", len(msgs)).Dur("waited", time.Since(start)).Msg("poll answered")
			return PollResult{
				Status:          StatusNewMessages,
				Messages:        msgs,
				ServerTimestamp: time.Now().UnixMilli(),
			}, nil
		}

		if !time.Now().Before(deadline) {
			metrics.PollsCompleted.WithLabelValues(string(StatusNoNewMessages)).Inc()
			log.Debug().Dur("waited", time.Since(start)).Msg("poll timed out")
			return NoNewMessages(), nil
		}

		select {
		case <-wake:
		case <-timer.C:
		case <-ctx.Done():
			metrics.PollsCompleted.WithLabelValues("cancelled").Inc()
			log.Debug().Err(ctx.Err()).Msg("poll cancelled")
			return PollResult{}, ctx.Err()
		}
	}
}

// join resolves roomID's queue and registers as a waiter, retrying if the
// queue is reclaimed concurrently.
func (s *Service) join(roomID string) *Queue {
	for {
		q := s.registry.GetOrCreate(roomID)
		if q.join() {
			return q
		}
	}
}

// Room returns the status of roomID if it is live. It never creates a room.
func (s *Service) Room(roomID string) (models.RoomStatus, bool) {
	q, ok := s.registry.Lookup(roomID)
	if !ok {
		return models.RoomStatus{}, false
	}
	return q.Status(), true
}

// Rooms returns the status of every live room.
func (s *Service) Rooms() []models.RoomStatus {
	return s.registry.Rooms()
}
