package relay

import (
	"sync"
	"testing"
	"time"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

func frozenClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAppendAssignsStrictlyIncreasingIDsWithinOneMillisecond(t *testing.T) {
	q := newQueue("abc", 50, frozenClock(time.UnixMilli(1_700_000_000_000)))

	var prev int64
	for i := 0; i < 10; i++ {
		msg, ok := q.append("M0 0", "white", 3)
		if !ok {
			t.Fatal("append rejected on live queue")
		}
		if msg.ID <= prev {
			t.Fatalf("append %d: id %d not greater than %d", i, msg.ID, prev)
		}
		prev = msg.ID
	}
	if prev != 1_700_000_000_009 {
		t.Fatalf("expected ids to tie-break by +1, last id %d", prev)
	}
}

func TestAppendFollowsClockWhenItAdvances(t *testing.T) {
	now := time.UnixMilli(1000)
	q := newQueue("abc", 50, func() time.Time { return now })

	a, _ := q.append("a", "white", 3)
	now = now.Add(time.Second)
	b, _ := q.append("b", "white", 3)

	if a.ID != 1000 || b.ID != 2000 {
		t.Fatalf("expected ids 1000 and 2000, got %d and %d", a.ID, b.ID)
	}
}

func TestMessagesAfterReturnsOnlyNewerInOrder(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	var ids []int64
	for i := 0; i < 10; i++ {
		msg, _ := q.append("p", "white", 3)
		ids = append(ids, msg.ID)
	}

	tests := []struct {
		name      string
		watermark int64
		want      []int64
	}{
		{"zero returns all", 0, ids},
		{"before first returns all", ids[0] - 1, ids},
		{"middle", ids[4], ids[5:]},
		{"last returns none", ids[9], nil},
		{"beyond last returns none", ids[9] + 1000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := q.MessagesAfter(tt.watermark)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d messages, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("position %d: expected id %d, got %d", i, tt.want[i], got[i].ID)
				}
			}
		})
	}
}

func TestMessagesAfterEmptyQueue(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	if got := q.MessagesAfter(0); len(got) != 0 {
		t.Fatalf("expected no messages, got %d", len(got))
	}
}

func TestMessagesAfterDoesNotExposeQueueStorage(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	q.append("original", "white", 3)

	got := q.MessagesAfter(0)
	got[0].Path = "mutated"

	if again := q.MessagesAfter(0); again[0].Path != "original" {
		t.Fatalf("queue was mutated through returned slice: %q", again[0].Path)
	}
}

func TestAppendEvictsOldestBeyondCapacity(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	var ids []int64
	for i := 0; i < 73; i++ {
		msg, _ := q.append("p", "white", 3)
		ids = append(ids, msg.ID)
	}

	if q.Len() != 50 {
		t.Fatalf("expected 50 queued messages, got %d", q.Len())
	}

	got := q.MessagesAfter(0)
	if len(got) != 50 {
		t.Fatalf("expected 50 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.ID != ids[23+i] {
			t.Fatalf("position %d: expected id %d, got %d", i, ids[23+i], m.ID)
		}
	}

	// Evicted messages are unreachable through any watermark.
	for _, w := range []int64{0, ids[0], ids[22]} {
		for _, m := range q.MessagesAfter(w) {
			if m.ID <= ids[22] {
				t.Fatalf("evicted message %d returned for watermark %d", m.ID, w)
			}
		}
	}
}

func TestAppendStoresPayloadFields(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	msg, _ := q.append("M0 0L10 10", "red", 5)

	got := q.MessagesAfter(0)
	want := models.Message{ID: msg.ID, Path: "M0 0L10 10", Color: "red", Thickness: 5}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestAppendWakesWatchers(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	msgs, wake := q.watch(0)
	if len(msgs) != 0 {
		t.Fatal("expected no messages")
	}

	q.append("p", "white", 3)

	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed by append")
	}
}

func TestConcurrentAppendsKeepIDsUniqueAndOrdered(t *testing.T) {
	q := newQueue("abc", 1000, time.Now)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.append("p", "white", 3)
			}
		}()
	}
	wg.Wait()

	got := q.MessagesAfter(0)
	if len(got) != 800 {
		t.Fatalf("expected 800 messages, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Fatalf("ids not strictly increasing at %d: %d then %d", i, got[i-1].ID, got[i].ID)
		}
	}
}

func TestSeedKeepsNewestAndAdvancesIDs(t *testing.T) {
	q := newQueue("abc", 3, frozenClock(time.UnixMilli(10)))

	n := q.seed([]models.Message{{ID: 104}, {ID: 101}, {ID: 103}, {ID: 102}})
	if n != 3 {
		t.Fatalf("expected 3 seeded messages, got %d", n)
	}

	got := q.MessagesAfter(0)
	if got[0].ID != 102 || got[2].ID != 104 {
		t.Fatalf("unexpected seeded order: %+v", got)
	}

	msg, _ := q.append("p", "white", 3)
	if msg.ID != 105 {
		t.Fatalf("expected id after seeded messages to be 105, got %d", msg.ID)
	}
}

func TestSeedIgnoredOnceQueueHasMessages(t *testing.T) {
	q := newQueue("abc", 50, time.Now)
	q.append("p", "white", 3)

	if n := q.seed([]models.Message{{ID: 1}}); n != 0 {
		t.Fatalf("expected seed to be ignored, got %d", n)
	}
}
