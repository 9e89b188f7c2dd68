package models

import "time"

// RoomActivity is the persisted activity record for a room.
type RoomActivity struct {
	RoomID       string    `json:"room_id"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// RoomStatus describes a live in-memory room.
type RoomStatus struct {
	RoomID   string `json:"room_id"`
	Queued   int    `json:"queued"`
	LastID   int64  `json:"last_id"`
	Waiters  int    `json:"waiters"`
	IdleSecs int64  `json:"idle_seconds"`
}
