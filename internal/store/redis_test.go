package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

func newTestRedis(t *testing.T, capacity int) *RedisStore {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		url = "redis://" + miniredis.RunT(t).Addr()
	}
	s, err := NewRedisStore(context.Background(), url, capacity)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisArchiveTrimsToCapacity(t *testing.T) {
	s := newTestRedis(t, 3)
	ctx := context.Background()
	room := fmt.Sprintf("test-%d", time.Now().UnixNano())
	t.Cleanup(func() { s.Client().Del(context.Background(), roomStrokesKey(room)) })

	for i := int64(1); i <= 5; i++ {
		msg := models.Message{ID: i, Path: fmt.Sprintf("M%d", i), Color: "red", Thickness: 2}
		if err := s.Archive(ctx, room, msg, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentMessages(ctx, room, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if want := int64(i + 3); m.ID != want {
			t.Fatalf("message %d: expected id %d, got %d", i, want, m.ID)
		}
	}
}
