package server

import (
	"net/http"
	"time"
)

func (s *Server) registerAudioRoutes(mux *http.ServeMux) {

	// POST /api/audio/control: playback commands for the current session
	mux.HandleFunc("/api/audio/control", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodPost) {
			return
		}
		sess := s.currentSession()
		if sess == nil || sess.Player() == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		player := sess.Player()

		var req struct {
			Action   string  `json:"action"`
			Position float64 `json:"position"` // seconds, for seek
			Volume   float64 `json:"volume"`
			SongID   string  `json:"song_id"` // for load
		}
		if decodeJSON(w, r, &req) != nil {
			return
		}

		switch req.Action {
		case "play":
			player.Play()
		case "pause":
			player.Pause()
		case "toggle":
			player.Toggle()
		case "next":
			player.Next(r.Context())
		case "previous":
			player.Previous(r.Context())
		case "seek":
			player.Seek(time.Duration(req.Position * float64(time.Second)))
		case "volume":
			player.SetVolume(req.Volume)
		case "load":
			if req.SongID == "" || s.opts.Catalog == nil {
				http.Error(w, "missing song_id", http.StatusBadRequest)
				return
			}
			song, err := s.opts.Catalog.Song(r.Context(), req.SongID)
			if err != nil {
				http.Error(w, "song not found: "+req.SongID, http.StatusNotFound)
				return
			}
			player.LoadSong(r.Context(), song)
		default:
			http.Error(w, "unknown action: "+req.Action, http.StatusBadRequest)
			return
		}
		writeJSON(w, player.State())
	})

	// GET /api/audio/state: player snapshot
	mux.HandleFunc("/api/audio/state", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		sess := s.currentSession()
		if sess == nil || sess.Player() == nil {
			writeJSON(w, map[string]any{"player": nil})
			return
		}
		writeJSON(w, sess.Player().State())
	})

	// GET /api/audio/events: SSE player state feed
	mux.HandleFunc("/api/audio/events", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		sess := s.currentSession()
		if sess == nil || sess.Player() == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}
		player := sess.Player()

		sseHeaders(w)
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		evtCh, cancel := player.Subscribe()
		defer cancel()

		writeSSE(w, flusher, "player", player.State())

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-evtCh:
				if !ok {
					return
				}
				writeSSE(w, flusher, "player", st)
			}
		}
	})
}
