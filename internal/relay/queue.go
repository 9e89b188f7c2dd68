package relay

import (
	"sort"
	"sync"
	"time"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

// Queue is the bounded, ordered stroke buffer for one room.
// All fields are guarded by mu; appends and reads on one room never
// contend with another room's queue.
type Queue struct {
	mu       sync.Mutex
	roomID   string
	capacity int
	msgs     []models.Message // oldest first, ids strictly increasing
	lastID   int64
	notify   chan struct{} // closed and replaced on every append
	waiters  int
	retired  bool
	active   time.Time
	now      func() time.Time

	seedOnce sync.Once
}

func newQueue(roomID string, capacity int, now func() time.Time) *Queue {
	return &Queue{
		roomID:   roomID,
		capacity: capacity,
		msgs:     make([]models.Message, 0, capacity),
		notify:   make(chan struct{}),
		active:   now(),
		now:      now,
	}
}

// nextID returns a fresh id for the room. Ids follow the wall clock in
// milliseconds but never repeat or go backwards: two appends in the same
// millisecond get consecutive ids. Caller must hold mu.
func (q *Queue) nextID() int64 {
	id := q.now().UnixMilli()
	if id <= q.lastID {
		id = q.lastID + 1
	}
	q.lastID = id
	return id
}

// append stores a new message, evicting the oldest entries beyond capacity,
// and wakes every waiting reader. It reports false if the queue was reclaimed
// and the caller must resolve the room again.
func (q *Queue) append(path, color string, thickness int) (models.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.retired {
		return models.Message{}, false
	}

	msg := models.Message{
		ID:        q.nextID(),
		Path:      path,
		Color:     color,
		Thickness: thickness,
	}

	for len(q.msgs) >= q.capacity {
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = models.Message{}
		q.msgs = q.msgs[:len(q.msgs)-1]
	}
	q.msgs = append(q.msgs, msg)
	q.active = q.now()

	close(q.notify)
	q.notify = make(chan struct{})

	return msg, true
}

// MessagesAfter returns, in stored order, every message with id > watermark.
// The result is a copy; the queue is not modified.
func (q *Queue) MessagesAfter(watermark int64) []models.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.after(watermark)
}

// after is MessagesAfter without locking. Caller must hold mu.
func (q *Queue) after(watermark int64) []models.Message {
	i := sort.Search(len(q.msgs), func(i int) bool {
		return q.msgs[i].ID > watermark
	})
	if i == len(q.msgs) {
		return nil
	}
	out := make([]models.Message, len(q.msgs)-i)
	copy(out, q.msgs[i:])
	return out
}

// watch returns the messages newer than watermark together with a channel
// that is closed by the next append. Reading both under one lock means an
// append can never slip in between the check and the wait.
func (q *Queue) watch(watermark int64) ([]models.Message, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.after(watermark), q.notify
}

// join registers a waiting reader. It fails if the queue was reclaimed.
func (q *Queue) join() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.retired {
		return false
	}
	q.waiters++
	q.active = q.now()
	return true
}

func (q *Queue) leave() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiters--
	q.active = q.now()
}

// seed loads previously mirrored messages into an empty queue.
func (q *Queue) seed(msgs []models.Message) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.msgs) > 0 || len(msgs) == 0 {
		return 0
	}

	sorted := make([]models.Message, len(msgs))
	copy(sorted, msgs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, m := range sorted {
		if m.ID <= q.lastID {
			continue
		}
		q.msgs = append(q.msgs, m)
		q.lastID = m.ID
	}
	if len(q.msgs) > q.capacity {
		q.msgs = append(q.msgs[:0], q.msgs[len(q.msgs)-q.capacity:]...)
	}
	return len(q.msgs)
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// Status returns a point-in-time description of the queue.
func (q *Queue) Status() models.RoomStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return models.RoomStatus{
		RoomID:   q.roomID,
		Queued:   len(q.msgs),
		LastID:   q.lastID,
		Waiters:  q.waiters,
		IdleSecs: int64(q.now().Sub(q.active) / time.Second),
	}
}
