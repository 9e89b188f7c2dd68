package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

const strokeTTL = 24 * time.Hour

// RedisStore mirrors each room's recent strokes in Redis.
type RedisStore struct {
	client   *redis.Client
	capacity int
}

// NewRedisStore creates a new Redis store keeping at most capacity strokes per room.
func NewRedisStore(ctx context.Context, redisURL string, capacity int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client, capacity: capacity}, nil
}

// Client returns the underlying Redis client.
func (s *RedisStore) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Name identifies the store as an archive sink.
func (s *RedisStore) Name() string {
	return "redis"
}

// roomStrokesKey returns the key for a room's stroke sorted set.
func roomStrokesKey(roomID string) string {
	return fmt.Sprintf("room:%s:strokes", roomID)
}

// Archive adds msg to the room's sorted set, scored by id, and trims the
// set to the newest strokes.
func (s *RedisStore) Archive(ctx context.Context, roomID string, msg models.Message, _ time.Time) error {
	start := time.Now()
	defer func() { metrics.RedisLatency.Observe(time.Since(start).Seconds()) }()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := roomStrokesKey(roomID)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(msg.ID),
		Member: string(data),
	})
	// Keep only the newest capacity members (ranks are ascending by score).
	pipe.ZRemRangeByRank(ctx, key, 0, int64(-s.capacity-1))
	pipe.Expire(ctx, key, strokeTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentMessages returns up to limit of the newest mirrored strokes for a
// room, oldest first.
func (s *RedisStore) RecentMessages(ctx context.Context, roomID string, limit int) ([]models.Message, error) {
	start := time.Now()
	defer func() { metrics.RedisLatency.Observe(time.Since(start).Seconds()) }()

	if limit <= 0 {
		limit = s.capacity
	}

	results, err := s.client.ZRange(ctx, roomStrokesKey(roomID), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(results))
	for _, data := range results {
		var msg models.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
