package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GAURISHTODI/Cerebrus/internal/models"
	"github.com/GAURISHTODI/Cerebrus/internal/relay"
)

// DrawResponse is returned when a stroke is accepted.
type DrawResponse struct {
	Status    string `json:"status"`
	MessageID int64  `json:"message_id"`
}

// Draw handles posting a stroke to a room.
func (h *Handler) Draw(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var payload models.DrawPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid draw data")
		return
	}
	if payload.Path == nil {
		h.Error(w, http.StatusBadRequest, "path is required")
		return
	}

	msg, err := h.relay.Append(roomID, payload)
	if err != nil {
		switch {
		case errors.Is(err, relay.ErrEmptyRoomID), errors.Is(err, relay.ErrPathRequired):
			h.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("room", roomID).Msg("append failed")
			h.Error(w, http.StatusInternalServerError, "failed to store stroke")
		}
		return
	}

	h.JSON(w, http.StatusCreated, DrawResponse{
		Status:    "success",
		MessageID: msg.ID,
	})
}
