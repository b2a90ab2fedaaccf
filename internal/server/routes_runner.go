package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/tbeech/runsheet/internal/catalog"
)

func (s *Server) registerRunnerRoutes(mux *http.ServeMux) {

	// POST /api/runner/start: begin a live session for a plan
	mux.HandleFunc("/api/runner/start", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		var req struct {
			PlanID string `json:"plan_id"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}
		if req.PlanID == "" {
			http.Error(w, "missing plan_id", http.StatusBadRequest)
			return
		}

		sess, err := s.startSession(r.Context(), req.PlanID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				http.Error(w, fmt.Sprintf("plan not found: %s", req.PlanID), http.StatusNotFound)
				return
			}
			http.Error(w, fmt.Sprintf("failed: %v", err), http.StatusInternalServerError)
			return
		}
		writeJSON(w, sess.Snapshot())
	})

	// GET /api/runner/state: current snapshot
	mux.HandleFunc("/api/runner/state", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			writeJSON(w, map[string]any{"session": nil})
			return
		}
		writeJSON(w, sess.Snapshot())
	})

	// GET /api/runner/timeline: items plus precomputed step groups
	mux.HandleFunc("/api/runner/timeline", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		writeJSON(w, map[string]any{
			"items":  sess.Items(),
			"groups": sess.Groups(),
		})
	})

	// POST /api/runner/navigate: next/prev/goto
	mux.HandleFunc("/api/runner/navigate", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		var req struct {
			Action string `json:"action"`
			Index  int    `json:"index"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}

		switch req.Action {
		case "next":
			sess.GoNext()
		case "prev":
			sess.GoPrev()
		case "goto":
			sess.GoToItem(req.Index)
		default:
			http.Error(w, "unknown action: "+req.Action, http.StatusBadRequest)
			return
		}
		writeJSON(w, sess.Snapshot())
	})

	// POST /api/runner/projection: toggle/close the audience display
	mux.HandleFunc("/api/runner/projection", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		var req struct {
			Action string `json:"action"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}

		switch req.Action {
		case "toggle":
			sess.ToggleProjection()
		case "close":
			sess.CloseProjection()
		default:
			http.Error(w, "unknown action: "+req.Action, http.StatusBadRequest)
			return
		}
		writeJSON(w, sess.Snapshot())
	})

	// POST /api/runner/finish: terminal transition plus the best-effort
	// completion call once the operator confirmed or skipped notes
	mux.HandleFunc("/api/runner/finish", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		var req struct {
			Notes string `json:"notes"`
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}

		sess.FinishService()
		sess.Complete(r.Context(), req.Notes)
		writeJSON(w, sess.Snapshot())
	})

	// POST /api/runner/close: operator leaves the screen
	mux.HandleFunc("/api/runner/close", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		s.closeSession()
		writeJSON(w, map[string]string{"status": "closed"})
	})

	// GET /api/runner/events: SSE snapshot feed
	mux.HandleFunc("/api/runner/events", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}

		sseHeaders(w)
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		evtCh, cancel := sess.Subscribe()
		defer cancel()

		writeSSE(w, flusher, "state", sess.Snapshot())

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-evtCh:
				if !ok {
					return
				}
				writeSSE(w, flusher, "state", snap)
			}
		}
	})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("sse marshal: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
