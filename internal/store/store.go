package store

import (
	"context"
	"time"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
)

// ActivityStore defines persistent per-room activity tracking.
// Both PostgresStore and SQLiteStore implement this interface.
type ActivityStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error
	Driver() string

	// Activity operations
	RecordMessage(ctx context.Context, roomID string, at time.Time) error
	GetRoom(ctx context.Context, roomID string) (*models.RoomActivity, error)
	TopRooms(ctx context.Context, limit int) ([]models.RoomActivity, error)
	Totals(ctx context.Context) (*Totals, error)
}

// Totals summarizes activity across all rooms.
type Totals struct {
	Rooms        int64      `json:"rooms"`
	Messages     int64      `json:"messages"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`
}

// ActivitySink adapts an ActivityStore to the archive recorder.
type ActivitySink struct {
	Store ActivityStore
}

// Name identifies the sink in logs and metrics.
func (s ActivitySink) Name() string {
	return s.Store.Driver()
}

// Archive counts msg against its room at the time it was relayed.
func (s ActivitySink) Archive(ctx context.Context, roomID string, _ models.Message, at time.Time) error {
	return s.Store.RecordMessage(ctx, roomID, at)
}
