package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/catalog"
	"github.com/tbeech/runsheet/internal/plan"
	"github.com/tbeech/runsheet/internal/runner"
)

type stubPlans struct {
	plans map[string]*plan.Plan
}

func (s *stubPlans) Plan(ctx context.Context, id string) (*plan.Plan, error) {
	if p, ok := s.plans[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("plan %s: %w", id, catalog.ErrNotFound)
}

type stubCatalog struct {
	songs    map[string]audio.Song
	lessons  map[string]catalog.Lesson
	chapters map[string]catalog.Chapter
}

func (s *stubCatalog) Song(ctx context.Context, id string) (audio.Song, error) {
	if song, ok := s.songs[id]; ok {
		return song, nil
	}
	return audio.Song{}, fmt.Errorf("song %s: %w", id, catalog.ErrNotFound)
}

func (s *stubCatalog) Songs(ctx context.Context, ids []string) ([]audio.Song, error) {
	var out []audio.Song
	for _, id := range ids {
		if song, ok := s.songs[id]; ok {
			out = append(out, song)
		}
	}
	return out, nil
}

func (s *stubCatalog) Lesson(ctx context.Context, id string) (catalog.Lesson, error) {
	if l, ok := s.lessons[id]; ok {
		return l, nil
	}
	return catalog.Lesson{}, fmt.Errorf("lesson %s: %w", id, catalog.ErrNotFound)
}

func (s *stubCatalog) Chapter(ctx context.Context, id string) (catalog.Chapter, error) {
	if ch, ok := s.chapters[id]; ok {
		return ch, nil
	}
	return catalog.Chapter{}, fmt.Errorf("chapter %s: %w", id, catalog.ErrNotFound)
}

type noAssetBackend struct{}

func (noAssetBackend) Open(ctx context.Context, song audio.Song) (audio.Handle, error) {
	return nil, fmt.Errorf("%w: no assets in tests", audio.ErrAssetUnavailable)
}

func testServer() *Server {
	// Songs carry no asset URL, so playback stays metadata-only and the
	// backend is never opened.
	plans := &stubPlans{plans: map[string]*plan.Plan{
		"plan-1": {
			ID:    "plan-1",
			Title: "Sunday Service",
			Items: []plan.Item{
				{ID: "i1", Position: 0, Type: plan.ItemTypeSong, Title: "Song A",
					Data: plan.ItemData{Song: &plan.SongData{SongID: "song-a"}}},
				{ID: "i2", Position: 1, Type: plan.ItemTypeScripture, Title: "Psalm 23",
					Data: plan.ItemData{Scripture: &plan.ScriptureData{Reference: "Psalm 23", Version: "ESV", ChapterID: "psa-23"}}},
			},
		},
	}}
	cat := &stubCatalog{
		songs: map[string]audio.Song{
			"song-a": {ID: "song-a", Title: "Song A", Duration: time.Minute},
		},
		chapters: map[string]catalog.Chapter{
			"psa-23": {ID: "psa-23", Reference: "Psalm 23", Version: "ESV", Verses: []string{"v1"}},
		},
	}
	return New(Options{
		Addr:    "127.0.0.1:0",
		Plans:   plans,
		Catalog: cat,
		Backend: noAssetBackend{},
		Cadence: 10 * time.Millisecond,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) runner.Snapshot {
	t.Helper()
	var snap runner.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v\nbody: %s", err, rec.Body.String())
	}
	return snap
}

func TestStartSessionReturnsSnapshot(t *testing.T) {
	srv := testServer()
	defer srv.closeSession()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	snap := decodeSnapshot(t, rec)
	if snap.PlanID != "plan-1" {
		t.Errorf("PlanID = %q, want plan-1", snap.PlanID)
	}
	if len(snap.Groups) != 2 {
		t.Errorf("groups = %d, want 2", len(snap.Groups))
	}
	if snap.CurrentIndex != 0 || snap.Finished {
		t.Errorf("unexpected start state: %+v", snap)
	}
}

func TestStartSessionUnknownPlanIs404(t *testing.T) {
	srv := testServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStateWithoutSession(t *testing.T) {
	srv := testServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/runner/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["session"] != nil {
		t.Errorf("session = %v, want null", resp["session"])
	}
}

func TestNavigateAdvancesGroups(t *testing.T) {
	srv := testServer()
	defer srv.closeSession()
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})

	rec := doJSON(t, h, http.MethodPost, "/api/runner/navigate", map[string]any{"action": "next"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if snap := decodeSnapshot(t, rec); snap.CurrentGroupIndex != 1 {
		t.Errorf("group = %d, want 1", snap.CurrentGroupIndex)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/runner/navigate", map[string]any{"action": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus action status = %d, want 400", rec.Code)
	}
}

func TestNavigateWithoutSessionConflicts(t *testing.T) {
	srv := testServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/runner/navigate", map[string]any{"action": "next"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestMethodGuards(t *testing.T) {
	srv := testServer()
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/runner/navigate", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET navigate status = %d, want 405", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/runner/state", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST state status = %d, want 405", rec.Code)
	}
}

func TestFinishIsTerminalOverHTTP(t *testing.T) {
	srv := testServer()
	defer srv.closeSession()
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})

	rec := doJSON(t, h, http.MethodPost, "/api/runner/finish", map[string]string{"notes": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if snap := decodeSnapshot(t, rec); !snap.Finished {
		t.Error("finish did not mark the session finished")
	}

	// Navigation after finish leaves the snapshot untouched.
	rec = doJSON(t, h, http.MethodPost, "/api/runner/navigate", map[string]any{"action": "next"})
	if snap := decodeSnapshot(t, rec); !snap.Finished || snap.CurrentIndex != 0 {
		t.Errorf("state changed after finish: %+v", snap)
	}
}

func TestFinishWithoutBody(t *testing.T) {
	srv := testServer()
	defer srv.closeSession()
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})

	// Operators finishing without notes send no body at all.
	rec := doJSON(t, h, http.MethodPost, "/api/runner/finish", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if snap := decodeSnapshot(t, rec); !snap.Finished {
		t.Error("body-less finish did not finish the session")
	}
}

func TestAudioVolumeControl(t *testing.T) {
	srv := testServer()
	defer srv.closeSession()
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})

	rec := doJSON(t, h, http.MethodPost, "/api/audio/control", map[string]any{"action": "volume", "volume": 0.3})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var st audio.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.Volume != 0.3 {
		t.Errorf("volume = %v, want 0.3", st.Volume)
	}
}

func TestCloseSessionClearsState(t *testing.T) {
	srv := testServer()
	h := srv.Handler()

	doJSON(t, h, http.MethodPost, "/api/runner/start", map[string]string{"plan_id": "plan-1"})

	rec := doJSON(t, h, http.MethodPost, "/api/runner/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if srv.currentSession() != nil {
		t.Error("session still present after close")
	}
}
