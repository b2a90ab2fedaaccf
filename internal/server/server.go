// Package server exposes the operator-facing surface of the live runner:
// runner controls, audio controls, SSE state feeds, and the websocket
// projection bridge for the audience display.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/plan"
	"github.com/tbeech/runsheet/internal/runner"
)

// PlanStore loads service plans for the runner.
type PlanStore interface {
	Plan(ctx context.Context, id string) (*plan.Plan, error)
}

// Catalog is the content the runner resolves at runtime plus the batch
// song lookup used to preload the session playlist.
type Catalog interface {
	runner.Resolver
	Songs(ctx context.Context, ids []string) ([]audio.Song, error)
}

type Options struct {
	Addr          string
	Plans         PlanStore
	Catalog       Catalog
	Backend       audio.Backend
	Completer     runner.Completer
	DefaultVolume float64
	Cadence       time.Duration
}

type Server struct {
	opts     Options
	http     *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	session *runner.Session
}

func New(opts Options) *Server {
	s := &Server{
		opts: opts,
		upgrader: websocket.Upgrader{
			// The projection display attaches from the operator's own
			// machine or LAN; origin checks add nothing here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	s.registerRunnerRoutes(mux)
	s.registerAudioRoutes(mux)
	s.registerProjectionRoutes(mux)

	s.http = &http.Server{
		Addr:    opts.Addr,
		Handler: mux,
	}
	return s
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Printf("listening on %s", s.opts.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.closeSession()
	return s.http.Shutdown(ctx)
}

func (s *Server) currentSession() *runner.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// startSession begins a live run for the plan, replacing any session the
// operator left behind.
func (s *Server) startSession(ctx context.Context, planID string) (*runner.Session, error) {
	p, err := s.opts.Plans.Plan(ctx, planID)
	if err != nil {
		return nil, err
	}

	player := audio.NewPlayer(s.opts.Backend).WithCadence(s.opts.Cadence)
	if s.opts.DefaultVolume > 0 {
		player.SetVolume(s.opts.DefaultVolume)
	}

	// Preload every plan song into the playlist so the operator can run
	// ahead or fall back without waiting on loads mid-service.
	if ids := songIDs(p.Items); len(ids) > 0 && s.opts.Catalog != nil {
		if songs, err := s.opts.Catalog.Songs(ctx, ids); err != nil {
			log.Printf("playlist preload: %v", err)
		} else if len(songs) > 0 {
			player.LoadPlaylist(ctx, songs, 0)
		}
	}

	sess := runner.NewSession(p, s.opts.Catalog, player, s.opts.Completer)

	s.mu.Lock()
	old := s.session
	s.session = sess
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}

	log.Printf("session %s started for plan %s (%d items, %d groups)",
		sess.ID, p.ID, len(p.Items), len(sess.Groups()))
	return sess, nil
}

func (s *Server) closeSession() {
	s.mu.Lock()
	sess := s.session
	s.session = nil
	s.mu.Unlock()

	if sess != nil {
		sess.Close()
		log.Printf("session %s closed", sess.ID)
	}
}

func songIDs(items []plan.Item) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, item := range items {
		if item.Type != plan.ItemTypeSong || item.Data.Song == nil {
			continue
		}
		id := item.Data.Song.SongID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
