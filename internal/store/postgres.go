package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS room_activity (
	room_id        TEXT PRIMARY KEY,
	message_count  BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_room_activity_last_active ON room_activity(last_active_at);
`

// PostgresStore handles PostgreSQL room activity tracking.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Driver names the backing database.
func (s *PostgresStore) Driver() string {
	return "postgres"
}

func (s *PostgresStore) observe(start time.Time) {
	metrics.DatabaseLatency.WithLabelValues("postgres").Observe(time.Since(start).Seconds())
}

// RecordMessage increments a room's message count and activity time,
// creating the row on first use.
func (s *PostgresStore) RecordMessage(ctx context.Context, roomID string, at time.Time) error {
	defer s.observe(time.Now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_activity (room_id, message_count, created_at, last_active_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (room_id) DO UPDATE
		SET message_count = room_activity.message_count + 1,
		    last_active_at = GREATEST(room_activity.last_active_at, EXCLUDED.last_active_at)
	`, roomID, at)
	return err
}

// GetRoom retrieves a room's activity record, or nil if it has none.
func (s *PostgresStore) GetRoom(ctx context.Context, roomID string) (*models.RoomActivity, error) {
	defer s.observe(time.Now())

	room := &models.RoomActivity{}
	err := s.pool.QueryRow(ctx, `
		SELECT room_id, message_count, created_at, last_active_at
		FROM room_activity WHERE room_id = $1
	`, roomID).Scan(
		&room.RoomID,
		&room.MessageCount,
		&room.CreatedAt,
		&room.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// TopRooms returns the rooms with the most messages.
func (s *PostgresStore) TopRooms(ctx context.Context, limit int) ([]models.RoomActivity, error) {
	defer s.observe(time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT room_id, message_count, created_at, last_active_at
		FROM room_activity
		ORDER BY message_count DESC, last_active_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.RoomActivity
	for rows.Next() {
		var room models.RoomActivity
		if err := rows.Scan(
			&room.RoomID,
			&room.MessageCount,
			&room.CreatedAt,
			&room.LastActiveAt,
		); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Totals summarizes activity across all rooms.
func (s *PostgresStore) Totals(ctx context.Context) (*Totals, error) {
	defer s.observe(time.Now())

	t := &Totals{}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(message_count), 0), MAX(last_active_at)
		FROM room_activity
	`).Scan(&t.Rooms, &t.Messages, &t.LastActiveAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}
