package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	maxEventBody      = 1 << 20
	heartbeatInterval = 25 * time.Second
)

// ForwardEvent relays a UI event to every other surface.
func (a *App) ForwardEvent(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err != nil {
		a.error(w, r, http.StatusBadRequest, codeBadRequest)
		return
	}
	var payload json.RawMessage
	if len(raw) > 0 {
		if !json.Valid(raw) {
			a.error(w, r, http.StatusBadRequest, codeBadRequest)
			return
		}
		payload = raw
	}
	if err := a.Service.Forward(r.Context(), event, payload); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"success": true})
}

// StreamEvents holds the connection open and writes broadcast events as
// server-sent events until the client leaves.
func (a *App) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok || a.Events == nil {
		a.error(w, r, http.StatusNotImplemented, codeStreaming)
		return
	}
	events, err := a.Events.Subscribe(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		a.Logger.Warn().Err(err).Msg("sse: clear write deadline")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				a.Logger.Warn().Err(err).Str("action", ev.Action).Msg("sse: encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Action, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
