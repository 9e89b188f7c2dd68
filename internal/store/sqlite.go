package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/GAURISHTODI/Cerebrus/internal/metrics"
	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

// SQLiteStore handles SQLite room activity tracking.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/cerebrus.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/cerebrus.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_activity (
		room_id TEXT PRIMARY KEY,
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		last_active_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_room_activity_last_active ON room_activity(last_active_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver names the backing database.
func (s *SQLiteStore) Driver() string {
	return "sqlite"
}

func (s *SQLiteStore) observe(start time.Time) {
	metrics.DatabaseLatency.WithLabelValues("sqlite").Observe(time.Since(start).Seconds())
}

// RecordMessage increments a room's message count and activity time.
func (s *SQLiteStore) RecordMessage(ctx context.Context, roomID string, at time.Time) error {
	defer s.observe(time.Now())

	at = at.UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO room_activity (room_id, message_count, created_at, last_active_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT(room_id) DO UPDATE
		SET message_count = message_count + 1,
		    last_active_at = MAX(last_active_at, excluded.last_active_at)
	`, roomID, at, at)
	return err
}

// GetRoom retrieves a room's activity record, or nil if it has none.
func (s *SQLiteStore) GetRoom(ctx context.Context, roomID string) (*models.RoomActivity, error) {
	defer s.observe(time.Now())

	room := &models.RoomActivity{}
	err := s.db.QueryRowContext(ctx, `
		SELECT room_id, message_count, created_at, last_active_at
		FROM room_activity WHERE room_id = ?
	`, roomID).Scan(
		&room.RoomID,
		&room.MessageCount,
		&room.CreatedAt,
		&room.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return room, nil
}

// TopRooms returns the rooms with the most messages.
func (s *SQLiteStore) TopRooms(ctx context.Context, limit int) ([]models.RoomActivity, error) {
	defer s.observe(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, message_count, created_at, last_active_at
		FROM room_activity
		ORDER BY message_count DESC, last_active_at DESC
		LIMIT ?
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
func (s *SQLiteStore) Totals(ctx context.Context) (*Totals, error) {
	defer s.observe(time.Now())

	t := &Totals{}
	var rooms, messages int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(message_count), 0)
		FROM room_activity
	`).Scan(&rooms, &messages)
	if err != nil {
		return nil, err
	}
	t.Rooms, t.Messages = rooms, messages

	if rooms > 0 {
		var last time.Time
		err := s.db.QueryRowContext(ctx, `
			SELECT last_active_at FROM room_activity
			ORDER BY last_active_at DESC LIMIT 1
		`).Scan(&last)
		if err != nil {
			return nil, err
		}
		t.LastActiveAt = &last
	}
	return t, nil
}
