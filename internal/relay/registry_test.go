package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

type stubSeeder struct {
	mu    sync.Mutex
	msgs  map[string][]models.Message
	err   error
	calls int
}

func (s *stubSeeder) RecentMessages(_ context.Context, roomID string, _ int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.msgs[roomID], s.err
}

func TestGetOrCreateReturnsSameQueue(t *testing.T) {
	r := NewRegistry(Config{}, nil, zerolog.Nop())

	a := r.GetOrCreate("abc")
	b := r.GetOrCreate("abc")
	if a != b {
		t.Fatal("expected the same queue for the same room")
	}
	if c := r.GetOrCreate("xyz"); c == a {
		t.Fatal("expected distinct queues for distinct rooms")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 rooms, got %d", r.Len())
	}
}

func TestGetOrCreateConcurrentFirstAccess(t *testing.T) {
	r := NewRegistry(Config{}, nil, zerolog.Nop())

	const n = 64
	queues := make([]*Queue, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			queues[i] = r.GetOrCreate("shared")
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		if queues[i] != queues[0] {
			t.Fatalf("goroutine %d got a different queue", i)
		}
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 room, got %d", r.Len())
	}
}

func TestRegistryUsesConfiguredCapacity(t *testing.T) {
	r := NewRegistry(Config{MaxQueueLength: 2}, nil, zerolog.Nop())
	q := r.GetOrCreate("abc")
	for i := 0; i < 5; i++ {
		q.append("p", "white", 3)
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 queued messages, got %d", q.Len())
	}
}

func TestGetOrCreateWarmsFromSeederOnce(t *testing.T) {
	seeder := &stubSeeder{msgs: map[string][]models.Message{
		"abc": {{ID: 5, Path: "a"}, {ID: 6, Path: "b"}},
	}}
	r := NewRegistry(Config{}, seeder, zerolog.Nop())

	q := r.GetOrCreate("abc")
	r.GetOrCreate("abc")

	if got := q.MessagesAfter(5); len(got) != 1 || got[0].Path != "b" {
		t.Fatalf("expected seeded message b, got %+v", got)
	}
	if seeder.calls != 1 {
		t.Fatalf("expected seeder to be called once, got %d", seeder.calls)
	}
}

func TestSeederFailureLeavesRoomEmpty(t *testing.T) {
	seeder := &stubSeeder{err: errors.New("connection refused")}
	r := NewRegistry(Config{}, seeder, zerolog.Nop())

	q := r.GetOrCreate("abc")
	if q.Len() != 0 {
		t.Fatalf("expected empty room, got %d messages", q.Len())
	}
}

func TestSweepReclaimsIdleRooms(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := NewRegistry(Config{IdleTTL: time.Minute}, nil, zerolog.Nop())
	r.now = func() time.Time { return now }

	idle := r.GetOrCreate("idle")
	busy := r.GetOrCreate("busy")
	if !busy.join() {
		t.Fatal("join failed")
	}

	now = now.Add(2 * time.Minute)
	if n := r.Sweep(now); n != 1 {
		t.Fatalf("expected 1 room reclaimed, got %d", n)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live room, got %d", r.Len())
	}
	if r.GetOrCreate("busy") != busy {
		t.Fatal("room with a waiter was reclaimed")
	}
	if r.GetOrCreate("idle") == idle {
		t.Fatal("expected idle room to be recreated")
	}
	if _, ok := idle.append("p", "white", 3); ok {
		t.Fatal("expected append on reclaimed queue to be rejected")
	}
}

func TestSweepKeepsRecentlyActiveRooms(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := NewRegistry(Config{IdleTTL: time.Minute}, nil, zerolog.Nop())
	r.now = func() time.Time { return now }

	q := r.GetOrCreate("abc")
	now = now.Add(50 * time.Second)
	q.append("p", "white", 3)
	now = now.Add(50 * time.Second)

	if n := r.Sweep(now); n != 0 {
		t.Fatalf("expected no rooms reclaimed, got %d", n)
	}
}

func TestSweepDisabled(t *testing.T) {
	r := NewRegistry(Config{IdleTTL: -1}, nil, zerolog.Nop())
	r.GetOrCreate("abc")
	if n := r.Sweep(time.Now().Add(24 * time.Hour)); n != 0 {
		t.Fatalf("expected no rooms reclaimed, got %d", n)
	}
}

func TestIDsStayMonotonicAcrossReclamation(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	r := NewRegistry(Config{IdleTTL: time.Minute}, nil, zerolog.Nop())
	r.now = func() time.Time { return now }

	first, _ := r.GetOrCreate("abc").append("p", "white", 3)
	now = now.Add(2 * time.Minute)
	r.Sweep(now)

	second, _ := r.GetOrCreate("abc").append("p", "white", 3)
	if second.ID <= first.ID {
		t.Fatalf("id went backwards after reclamation: %d then %d", first.ID, second.ID)
	}
}

func TestRoomsListsStatusSorted(t *testing.T) {
	r := NewRegistry(Config{}, nil, zerolog.Nop())
	r.GetOrCreate("b").append("p", "white", 3)
	r.GetOrCreate("a")

	rooms := r.Rooms()
	if len(rooms) != 2 || rooms[0].RoomID != "a" || rooms[1].RoomID != "b" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
	if rooms[1].Queued != 1 || rooms[1].LastID == 0 {
		t.Fatalf("unexpected status for b: %+v", rooms[1])
	}
}
