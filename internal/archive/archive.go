// Package archive forwards relayed strokes to optional external stores
// without ever blocking the relay.
package archive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

const writeTimeout = 2 * time.Second

// Sink is an external store that wants a copy of every relayed message.
// at is when the message was relayed, not when the sink sees it.
type Sink interface {
	Name() string
	Archive(ctx context.Context, roomID string, msg models.Message, at time.Time) error
}

type entry struct {
	roomID string
	msg    models.Message
	at     time.Time
}

// Recorder queues messages and writes them to its sinks from a single
// worker goroutine. When the queue is full new messages are dropped.
type Recorder struct {
	sinks  []Sink
	queue  chan entry
	logger zerolog.Logger

	mu     sync.RWMutex // guards closed and sends on queue
	closed bool
	done   chan struct{}
}

// NewRecorder starts a recorder with the given queue depth.
func NewRecorder(buffer int, logger zerolog.Logger, sinks ...Sink) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	r := &Recorder{
		sinks:  sinks,
		queue:  make(chan entry, buffer),
		logger: logger.With().Str("component", "archive").Logger(),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record enqueues msg for archiving. It never blocks. Messages recorded
// after Close are dropped.
func (r *Recorder) Record(roomID string, msg models.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.ArchiveDropped.Inc()
		return
	}
	select {
	case r.queue <- entry{roomID: roomID, msg: msg, at: time.Now()}:
	default:
		metrics.ArchiveDropped.Inc()
		r.logger.Warn().Str("room", roomID).Int64("id", msg.ID).Msg("archive queue full, dropping message")
	}
}

// Close stops accepting messages, drains the queue and waits for the worker.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for e := range r.queue {
		for _, s := range r.sinks {
			r.write(s, e)
		}
	}
}

func (r *Recorder) write(s Sink, e entry) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.Archive(ctx, e.roomID, e.msg, e.at); err != nil {
		metrics.ArchiveErrors.WithLabelValues(s.Name()).Inc()
		r.logger.Error().
			Err(err).
			Str("sink", s.Name()).
			Str("room", e.roomID).
			Int64("id", e.msg.ID).
			Dur("lag", time.Since(e.at)).
			Msg("archive write failed")
	}
}
