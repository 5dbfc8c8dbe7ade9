package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/api/request"
	"github.com/platebridge/portal/internal/api/response"
	"github.com/platebridge/portal/internal/events"
)

type Events struct {
	hub    *events.Hub
	logger zerolog.Logger
}

func NewEvents(hub *events.Hub, logger zerolog.Logger) *Events {
	return &Events{hub: hub, logger: logger.With().Str("component", "events-feed").Logger()}
}

// Feed streams live detection events for one community over a websocket.
// The connection closes when the client goes away or stops reading.
func (h *Events) Feed(w http.ResponseWriter, r *http.Request) {
	communityID, err := request.RequireID(r.URL.Query().Get("community_id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "missing community_id")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through the portal UI.
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	ch, cancel := h.hub.Subscribe(communityID)
	defer cancel()

	ctx := r.Context()

	// Drain client frames so pings are answered and closure is noticed.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := h.writeWithTimeout(ctx, ws, data); err != nil {
				return
			}
		}
	}
}

func (h *Events) writeWithTimeout(ctx context.Context, ws *websocket.Conn, data []byte) error {
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return ws.Write(wctx, websocket.MessageText, data)
}
