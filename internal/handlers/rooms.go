package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
	"github.com/GAURISHTODI/Cerebrus/internal/store"
)

// RoomListResponse lists the rooms currently held in memory.
type RoomListResponse struct {
	Rooms []models.RoomStatus `json:"rooms"`
	Total int                 `json:"total"`
}

// ListRooms handles listing live rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.relay.Rooms()
	if rooms == nil {
		rooms = []models.RoomStatus{}
	}
	h.JSON(w, http.StatusOK, RoomListResponse{
		Rooms: rooms,
		Total: len(rooms),
	})
}

// StatsResponse reports persisted room activity.
type StatsResponse struct {
	Totals   *store.Totals         `json:"totals"`
	TopRooms []models.RoomActivity `json:"top_rooms"`
	Live     int                   `json:"live_rooms"`
}

// Stats returns activity statistics from the configured activity store.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		h.Error(w, http.StatusServiceUnavailable, "activity store not configured")
		return
	}
	ctx := r.Context()

	limit := 5
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if limit > 50 {
		limit = 50
	}

	totals, err := h.activity.Totals(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read activity totals")
		h.Error(w, http.StatusInternalServerError, "failed to read totals")
		return
	}

	top, err := h.activity.TopRooms(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read top rooms")
		h.Error(w, http.StatusInternalServerError, "failed to read top rooms")
		return
	}
	if top == nil {
		top = []models.RoomActivity{}
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		Totals:   totals,
		TopRooms: top,
		Live:     h.relay.Registry().Len(),
	})
}

// RoomStatsResponse describes one room: its live queue, if any, and its
// persisted activity, if a store is configured.
type RoomStatsResponse struct {
	RoomID   string               `json:"room_id"`
	Live     *models.RoomStatus   `json:"live"`
	Activity *models.RoomActivity `json:"activity"`
}

// RoomStats returns live and persisted details for a single room. Looking a
// room up never creates it.
func (h *Handler) RoomStats(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	resp := RoomStatsResponse{RoomID: roomID}

	if st, ok := h.relay.Room(roomID); ok {
		resp.Live = &st
	}

	if h.activity != nil {
		activity, err := h.activity.GetRoom(r.Context(), roomID)
		if err != nil {
			h.logger.Error().Err(err).Str("room", roomID).Msg("failed to read room activity")
			h.Error(w, http.StatusInternalServerError, "failed to read room activity")
			return
		}
		resp.Activity = activity
	}

	if resp.Live == nil && resp.Activity == nil {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}
	h.JSON(w, http.StatusOK, resp)
}
