package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leilaoai/internal/util"
)

const heartbeatInterval = 25 * time.Second

// handleEvents streams change notifications as server-sent events so open
// pages can refresh. The payload only names what changed.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rc := http.NewResponseController(w)
	ch, cancel, err := s.app.Events().Subscribe(r.Context())
	if err != nil {
		writeAppError(w, r, fmt.Errorf("subscribe events: %w", err))
		return
	}
	defer cancel()

	// The stream outlives the server write timeout.
	_ = rc.SetWriteDeadline(time.Time{})
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		util.LoggerFromContext(r.Context()).Warn("event stream not flushable", "err", err)
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
