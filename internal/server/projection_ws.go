package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tbeech/runsheet/internal/content"
	"github.com/tbeech/runsheet/internal/runner"
)

// projectionFrame is what the audience display receives. A "clear" frame
// blanks the screen; a "frame" carries the payload to render full-screen.
type projectionFrame struct {
	Type    string           `json:"type"` // "frame" | "clear"
	Payload *content.Payload `json:"payload,omitempty"`
}

func frameFor(snap runner.Snapshot) projectionFrame {
	if snap.Projection != nil {
		return projectionFrame{Type: "frame", Payload: snap.Projection}
	}
	return projectionFrame{Type: "clear"}
}

func (s *Server) registerProjectionRoutes(mux *http.ServeMux) {

	// GET /api/projection/ws: the audience display attaches here and
	// mirrors the operator's projection state until either side closes.
	mux.HandleFunc("/api/projection/ws", func(w http.ResponseWriter, r *http.Request) {
		sess := s.currentSession()
		if sess == nil {
			http.Error(w, "no active session", http.StatusConflict)
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("projection upgrade: %v", err)
			return
		}
		defer conn.Close()

		evtCh, cancel := sess.Subscribe()
		defer cancel()

		// Read pump: the display sends nothing meaningful, but reading
		// surfaces the close so the subscription is torn down.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := conn.WriteJSON(frameFor(sess.Snapshot())); err != nil {
			return
		}

		for {
			select {
			case <-closed:
				return
			case <-r.Context().Done():
				return
			case snap, ok := <-evtCh:
				if !ok {
					// Session closed: blank the display before dropping.
					_ = conn.WriteJSON(projectionFrame{Type: "clear"})
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
					return
				}
				if err := conn.WriteJSON(frameFor(snap)); err != nil {
					return
				}
			}
		}
	})
}
