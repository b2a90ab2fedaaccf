package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tbeech/runsheet/internal/audio"
)

type countingChapterStore struct {
	chapters map[string]Chapter
	hits     int
}

func (s *countingChapterStore) Chapter(ctx context.Context, id string) (Chapter, error) {
	s.hits++
	if ch, ok := s.chapters[id]; ok {
		return ch, nil
	}
	return Chapter{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
}

type stubSongStore struct {
	songs map[string]audio.Song
}

func (s *stubSongStore) Song(ctx context.Context, id string) (audio.Song, error) {
	if song, ok := s.songs[id]; ok {
		return song, nil
	}
	return audio.Song{}, fmt.Errorf("song %s: %w", id, ErrNotFound)
}

func (s *stubSongStore) Songs(ctx context.Context, ids []string) ([]audio.Song, error) {
	var out []audio.Song
	for _, id := range ids {
		if song, ok := s.songs[id]; ok {
			out = append(out, song)
		}
	}
	return out, nil
}

func TestChapterPassesThroughWithoutCache(t *testing.T) {
	store := &countingChapterStore{chapters: map[string]Chapter{
		"psa-23": {ID: "psa-23", Reference: "Psalm 23", Version: "ESV", Verses: []string{"v1"}},
	}}
	svc := NewService(nil, nil, store, nil)

	ch, err := svc.Chapter(context.Background(), "psa-23")
	if err != nil {
		t.Fatalf("Chapter: %v", err)
	}
	if ch.Reference != "Psalm 23" || len(ch.Verses) != 1 {
		t.Errorf("chapter = %+v", ch)
	}
	if store.hits != 1 {
		t.Errorf("store hits = %d, want 1", store.hits)
	}
}

func TestChapterNotFoundPropagates(t *testing.T) {
	store := &countingChapterStore{chapters: map[string]Chapter{}}
	svc := NewService(nil, nil, store, nil)

	_, err := svc.Chapter(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestNilStoresReportNotFound(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)

	if _, err := svc.Song(context.Background(), "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Song err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Lesson(context.Background(), "l1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lesson err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Chapter(context.Background(), "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Chapter err = %v, want ErrNotFound", err)
	}
}

func TestSongsSkipsUnknownIDs(t *testing.T) {
	store := &stubSongStore{songs: map[string]audio.Song{
		"a": {ID: "a", Title: "A"},
		"b": {ID: "b", Title: "B"},
	}}
	svc := NewService(store, nil, nil, nil)

	out, err := svc.Songs(context.Background(), []string{"a", "nope", "b"})
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Errorf("songs = %+v", out)
	}

	if out, _ := svc.Songs(context.Background(), nil); out != nil {
		t.Errorf("Songs(nil) = %+v, want nil", out)
	}
}

func TestProjectableBlocksFilters(t *testing.T) {
	l := Lesson{Blocks: []LessonBlock{
		{Label: "Notes", Projectable: false},
		{Label: "Reading", Projectable: true},
		{Label: "Quote", Projectable: true},
	}}
	got := l.ProjectableBlocks()
	if len(got) != 2 || got[0].Label != "Reading" || got[1].Label != "Quote" {
		t.Errorf("projectable blocks = %+v", got)
	}
}
