// Package runner drives one live service session: group-aware navigation
// over the plan, projection toggling, song handoff to the audio player, and
// the terminal completion transition.
package runner

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/catalog"
	"github.com/tbeech/runsheet/internal/content"
	"github.com/tbeech/runsheet/internal/plan"
)

// Completer receives the single best-effort "mark plan complete" call.
type Completer interface {
	MarkComplete(ctx context.Context, planID, notes string)
}

// Resolver is the slice of the catalog the session needs at runtime.
type Resolver interface {
	Song(ctx context.Context, id string) (audio.Song, error)
	Lesson(ctx context.Context, id string) (catalog.Lesson, error)
	Chapter(ctx context.Context, id string) (catalog.Chapter, error)
}

// Session is the state machine for one live service run. Construction is
// two-phase: the step groups are computed from the static item list first,
// then the controller is built holding that group slice plus its own
// mutable position. Navigation never closes over half-built state.
type Session struct {
	ID string

	plan      *plan.Plan
	groups    []plan.StepGroup
	resolver  Resolver
	player    *audio.Player
	completer Completer

	mu            sync.Mutex
	currentIndex  int
	isProjecting  bool
	finished      bool
	completedSent bool
	loadGen       int
	resolved      content.Resolved
	resolvedItem  string

	listenerMu sync.RWMutex
	listeners  map[chan Snapshot]struct{}
}

// Snapshot is the read-only state the timeline sidebar, content pane, and
// projection overlay consume.
type Snapshot struct {
	SessionID             string           `json:"session_id"`
	PlanID                string           `json:"plan_id"`
	PlanTitle             string           `json:"plan_title"`
	Empty                 bool             `json:"empty"`
	Finished              bool             `json:"finished"`
	CurrentIndex          int              `json:"current_index"`
	CurrentGroupIndex     int              `json:"current_group_index"`
	CompletedGroupIndexes []int            `json:"completed_group_indexes"`
	IsProjecting          bool             `json:"is_projecting"`
	Groups                []plan.StepGroup `json:"groups"`
	View                  content.View     `json:"view"`
	Resolved              content.Resolved `json:"resolved"`
	Projection            *content.Payload `json:"projection,omitempty"`
}

func NewSession(p *plan.Plan, resolver Resolver, player *audio.Player, completer Completer) *Session {
	groups := plan.ComputeGroups(p.Items)

	s := &Session{
		ID:        uuid.NewString(),
		plan:      p,
		groups:    groups,
		resolver:  resolver,
		player:    player,
		completer: completer,
		listeners: make(map[chan Snapshot]struct{}),
	}

	if len(p.Items) > 0 {
		s.resolveCurrent()
	}
	return s
}

// Items returns the plan's raw item list for the timeline.
func (s *Session) Items() []plan.Item {
	return s.plan.Items
}

// Groups returns the precomputed step groups.
func (s *Session) Groups() []plan.StepGroup {
	return s.groups
}

func (s *Session) Player() *audio.Player {
	return s.player
}

// Snapshot returns the current read-only state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		PlanID:       s.plan.ID,
		PlanTitle:    s.plan.Title,
		Empty:        len(s.plan.Items) == 0,
		Finished:     s.finished,
		CurrentIndex: s.currentIndex,
		IsProjecting: s.isProjecting,
		Groups:       s.groups,
	}

	if snap.Empty {
		snap.CurrentGroupIndex = -1
		snap.CompletedGroupIndexes = []int{}
		return snap
	}

	snap.CurrentGroupIndex = plan.GroupIndexFor(s.groups, s.currentIndex)
	snap.CompletedGroupIndexes = make([]int, 0, snap.CurrentGroupIndex)
	for i := 0; i < snap.CurrentGroupIndex; i++ {
		snap.CompletedGroupIndexes = append(snap.CompletedGroupIndexes, i)
	}

	item := s.plan.Items[s.currentIndex]
	snap.View = content.Render(item)
	if s.resolvedItem == item.ID {
		snap.Resolved = s.resolved
	}
	if s.isProjecting {
		if payload, ok := content.Projection(item, snap.Resolved); ok {
			snap.Projection = &payload
		}
	}
	return snap
}

// Subscribe returns a channel of snapshots. Slow consumers drop snapshots
// rather than stalling navigation.
func (s *Session) Subscribe() (ch chan Snapshot, cancel func()) {
	ch = make(chan Snapshot, 16)

	s.listenerMu.Lock()
	s.listeners[ch] = struct{}{}
	s.listenerMu.Unlock()

	cancel = func() {
		s.listenerMu.Lock()
		if _, ok := s.listeners[ch]; ok {
			delete(s.listeners, ch)
			close(ch)
		}
		s.listenerMu.Unlock()
	}
	return ch, cancel
}

func (s *Session) notify() {
	snap := s.Snapshot()
	s.listenerMu.RLock()
	for ch := range s.listeners {
		select {
		case ch <- snap:
		default:
		}
	}
	s.listenerMu.RUnlock()
}

// GoToItem jumps straight to a raw item index (timeline click). The index
// is clamped; projection state is left alone.
func (s *Session) GoToItem(index int) {
	s.mu.Lock()
	if s.finished || len(s.plan.Items) == 0 {
		s.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(s.plan.Items) {
		index = len(s.plan.Items) - 1
	}
	s.currentIndex = index
	s.mu.Unlock()

	s.resolveCurrent()
	s.notify()
}

// GoNext advances to the next group's first item. On the last group it
// finishes the service instead of advancing.
func (s *Session) GoNext() {
	s.mu.Lock()
	if s.finished || len(s.plan.Items) == 0 {
		s.mu.Unlock()
		return
	}

	cur := plan.GroupIndexFor(s.groups, s.currentIndex)
	if cur >= len(s.groups)-1 {
		s.mu.Unlock()
		s.FinishService()
		return
	}

	s.currentIndex = s.groups[cur+1].StartIndex
	s.mu.Unlock()

	s.resolveCurrent()
	s.notify()
}

// GoPrev moves to the previous group's first item; on the first group it
// is a no-op.
func (s *Session) GoPrev() {
	s.mu.Lock()
	if s.finished || len(s.plan.Items) == 0 {
		s.mu.Unlock()
		return
	}

	cur := plan.GroupIndexFor(s.groups, s.currentIndex)
	if cur <= 0 {
		s.mu.Unlock()
		return
	}

	s.currentIndex = s.groups[cur-1].StartIndex
	s.mu.Unlock()

	s.resolveCurrent()
	s.notify()
}

// ToggleProjection turns the audience display on when the current item has
// a projectable payload, and off otherwise. Turning it on with nothing to
// show is a no-op.
func (s *Session) ToggleProjection() {
	s.mu.Lock()
	if s.isProjecting {
		s.isProjecting = false
		s.mu.Unlock()
		s.notify()
		return
	}

	if s.finished || len(s.plan.Items) == 0 {
		s.mu.Unlock()
		return
	}

	item := s.plan.Items[s.currentIndex]
	var res content.Resolved
	if s.resolvedItem == item.ID {
		res = s.resolved
	}
	if _, ok := content.Projection(item, res); !ok {
		s.mu.Unlock()
		return
	}

	s.isProjecting = true
	s.mu.Unlock()
	s.notify()
}

func (s *Session) CloseProjection() {
	s.mu.Lock()
	changed := s.isProjecting
	s.isProjecting = false
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// FinishService is the terminal transition. Idempotent: repeated calls do
// not re-fire the side effects.
func (s *Session) FinishService() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.isProjecting = false
	s.loadGen++ // drop in-flight resolutions
	s.mu.Unlock()

	if s.player != nil {
		s.player.Pause()
	}
	log.Printf("session %s finished (plan %s)", s.ID, s.plan.ID)
	s.notify()
}

// Complete issues the single best-effort mark-complete call, after the
// operator confirmed or skipped the post-session notes. Safe to call only
// once; later calls are ignored.
func (s *Session) Complete(ctx context.Context, notes string) {
	s.mu.Lock()
	if !s.finished || s.completedSent {
		s.mu.Unlock()
		return
	}
	s.completedSent = true
	s.mu.Unlock()

	if s.completer != nil {
		s.completer.MarkComplete(ctx, s.plan.ID, notes)
	}
}

// Close tears the session down: subscribers, in-flight loads, the player.
func (s *Session) Close() {
	s.mu.Lock()
	s.loadGen++
	s.mu.Unlock()

	s.listenerMu.Lock()
	for ch := range s.listeners {
		close(ch)
	}
	s.listeners = make(map[chan Snapshot]struct{})
	s.listenerMu.Unlock()

	if s.player != nil {
		s.player.Close()
	}
}

// resolveCurrent starts the async content load for the current item. The
// generation counter makes the latest navigation win: a fetch that resolves
// after the operator moved on is discarded.
func (s *Session) resolveCurrent() {
	s.mu.Lock()
	if len(s.plan.Items) == 0 {
		s.mu.Unlock()
		return
	}
	item := s.plan.Items[s.currentIndex]
	s.loadGen++
	gen := s.loadGen

	if s.resolvedItem != item.ID {
		s.resolved = content.Resolved{}
		s.resolvedItem = ""
	}
	s.mu.Unlock()

	go s.resolve(item, gen)
}

func (s *Session) resolve(item plan.Item, gen int) {
	ctx := context.Background()
	var res content.Resolved

	switch item.Type {
	case plan.ItemTypeSong:
		if item.Data.Song == nil || s.resolver == nil {
			res.Missing = true
			break
		}
		song, err := s.resolver.Song(ctx, item.Data.Song.SongID)
		if err != nil {
			res.Missing = true
			logResolveErr(item, err)
			break
		}
		res.Song = &song

	case plan.ItemTypeScripture:
		if item.Data.Scripture == nil || s.resolver == nil {
			res.Missing = true
			break
		}
		chapter, err := s.resolver.Chapter(ctx, item.Data.Scripture.ChapterID)
		if err != nil {
			res.Missing = true
			logResolveErr(item, err)
			break
		}
		res.Chapter = &chapter

	case plan.ItemTypeLessonBlock:
		if item.Data.Lesson == nil || s.resolver == nil {
			res.Missing = true
			break
		}
		lesson, err := s.resolver.Lesson(ctx, item.Data.Lesson.LessonID)
		if err != nil {
			res.Missing = true
			logResolveErr(item, err)
			break
		}
		res.Lesson = &lesson

	default:
		// Prayer, announcements, and custom items carry their content
		// inline; nothing to fetch.
	}

	s.mu.Lock()
	if s.loadGen != gen {
		s.mu.Unlock()
		return
	}
	s.resolved = res
	s.resolvedItem = item.ID
	s.mu.Unlock()

	if res.Song != nil && s.player != nil {
		s.player.LoadSong(ctx, *res.Song)
	}
	s.notify()
}

func logResolveErr(item plan.Item, err error) {
	log.Printf("content for item %s (%s) unavailable: %v", item.ID, item.Type, err)
}
