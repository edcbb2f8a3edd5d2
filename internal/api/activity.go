package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeJSON(w, 200, []any{})
		return
	}
	limit := queryInt(r, "limit", 50)
	ctx := r.Context()

	var (
		events any
		err    error
	)
	if typ := r.URL.Query().Get("type"); typ != "" {
		events, err = s.activity.ByType(ctx, typ, limit)
	} else {
		events, err = s.activity.Recent(ctx, limit)
	}
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, events)
}

func (s *Server) handleActivityVerify(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeJSON(w, 200, map[string]any{"valid": true, "events": 0})
		return
	}
	count, err := s.activity.Count(r.Context())
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if err := s.activity.VerifyChain(r.Context()); err != nil {
		writeJSON(w, 200, map[string]any{"valid": false, "events": count, "error": err.Error()})
		return
	}
	writeJSON(w, 200, map[string]any{"valid": true, "events": count})
}

// handleActivityStream pushes every new event as a server-sent event until
// the client goes away. A comment line every 15s keeps proxies from closing
// an idle stream.
func (s *Server) handleActivityStream(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, 503, "activity log not configured")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, 500, "streaming not supported")
		return
	}

	ctx := r.Context()
	events := s.activity.Watch(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				log.Warn("sse encode", "event", e.ID, "err", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
			flusher.Flush()
		}
	}
}
