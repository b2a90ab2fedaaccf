package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/tbeech/runsheet/internal/audio"
)

const (
	chapterKeyPrefix = "catalog:chapter:"
	chapterCacheTTL  = 30 * time.Minute
)

type SongStore interface {
	Song(ctx context.Context, id string) (audio.Song, error)
	Songs(ctx context.Context, ids []string) ([]audio.Song, error)
}

type LessonStore interface {
	Lesson(ctx context.Context, id string) (Lesson, error)
}

type ChapterStore interface {
	Chapter(ctx context.Context, id string) (Chapter, error)
}

// Service fronts the catalog stores for the live runner. Scripture
// chapters go through a Redis cache so the content fetched for the
// operator pane is reused by the projection view instead of re-fetched.
type Service struct {
	songs    SongStore
	lessons  LessonStore
	chapters ChapterStore
	cache    *redislib.Client
}

func NewService(songs SongStore, lessons LessonStore, chapters ChapterStore, cache *redislib.Client) *Service {
	return &Service{
		songs:    songs,
		lessons:  lessons,
		chapters: chapters,
		cache:    cache,
	}
}

func (s *Service) Song(ctx context.Context, id string) (audio.Song, error) {
	if s.songs == nil {
		return audio.Song{}, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return s.songs.Song(ctx, id)
}

func (s *Service) Songs(ctx context.Context, ids []string) ([]audio.Song, error) {
	if s.songs == nil || len(ids) == 0 {
		return nil, nil
	}
	return s.songs.Songs(ctx, ids)
}

func (s *Service) Lesson(ctx context.Context, id string) (Lesson, error) {
	if s.lessons == nil {
		return Lesson{}, fmt.Errorf("lesson %s: %w", id, ErrNotFound)
	}
	return s.lessons.Lesson(ctx, id)
}

// Chapter resolves a scripture chapter, cache first.
func (s *Service) Chapter(ctx context.Context, id string) (Chapter, error) {
	if ch, ok := s.cachedChapter(ctx, id); ok {
		return ch, nil
	}

	if s.chapters == nil {
		return Chapter{}, fmt.Errorf("chapter %s: %w", id, ErrNotFound)
	}

	ch, err := s.chapters.Chapter(ctx, id)
	if err != nil {
		return Chapter{}, err
	}

	s.storeChapter(ctx, ch)
	return ch, nil
}

func (s *Service) cachedChapter(ctx context.Context, id string) (Chapter, bool) {
	if s.cache == nil {
		return Chapter{}, false
	}

	raw, err := s.cache.Get(ctx, chapterKey(id)).Bytes()
	if err != nil {
		if err != redislib.Nil {
			log.Printf("chapter cache read: %v", err)
		}
		return Chapter{}, false
	}

	var ch Chapter
	if err := json.Unmarshal(raw, &ch); err != nil {
		log.Printf("chapter cache decode: %v", err)
		return Chapter{}, false
	}
	return ch, true
}

func (s *Service) storeChapter(ctx context.Context, ch Chapter) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(ch)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, chapterKey(ch.ID), payload, chapterCacheTTL).Err(); err != nil {
		log.Printf("chapter cache write: %v", err)
	}
}

func chapterKey(id string) string {
	return chapterKeyPrefix + id
}
