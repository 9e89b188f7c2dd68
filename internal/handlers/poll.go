package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GAURISHTODI/Cerebrus/internal/relay"
)

// Poll handles a long-poll for strokes newer than the client's watermark.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	lastID, err := strconv.ParseInt(chi.URLParam(r, "lastMessageID"), 10, 64)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "last_message_id must be an integer")
		return
	}

	res, err := h.relay.Poll(r.Context(), roomID, lastID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Either the client left or the server is shutting down. In the
			// second case the client re-polls with the same watermark.
			h.logger.Debug().Str("room", roomID).Msg("poll cancelled")
			h.JSON(w, http.StatusOK, relay.NoNewMessages())
		case errors.Is(err, relay.ErrEmptyRoomID):
			h.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error().Err(err).Str("room", roomID).Msg("poll failed")
			h.Error(w, http.StatusInternalServerError, "poll failed")
		}
		return
	}

	h.JSON(w, http.StatusOK, res)
}
