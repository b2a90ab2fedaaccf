package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tbeech/runsheet/internal/audio"
	"github.com/tbeech/runsheet/internal/catalog"
)

type SongRepository struct {
	db *sql.DB
}

func NewSongRepository() *SongRepository {
	return &SongRepository{db: GetDB()}
}

func (r *SongRepository) Song(ctx context.Context, id string) (audio.Song, error) {
	if r == nil || r.db == nil {
		return audio.Song{}, fmt.Errorf("song %s: %w", id, catalog.ErrNotFound)
	}

	const query = `
		SELECT id, title, artist, asset_url, duration_seconds
		FROM songs
		WHERE id = $1
	`

	var song audio.Song
	var durationSecs int
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&song.ID, &song.Title, &song.Artist, &song.AssetURL, &durationSecs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return audio.Song{}, fmt.Errorf("song %s: %w", id, catalog.ErrNotFound)
		}
		return audio.Song{}, err
	}

	song.Duration = time.Duration(durationSecs) * time.Second
	return song, nil
}

// Songs returns the requested songs in the order of the given IDs; unknown
// IDs are skipped rather than failing the batch.
func (r *SongRepository) Songs(ctx context.Context, ids []string) ([]audio.Song, error) {
	if r == nil || r.db == nil || len(ids) == 0 {
		return nil, nil
	}

	const query = `
		SELECT id, title, artist, asset_url, duration_seconds
		FROM songs
		WHERE id = ANY($1)
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]audio.Song, len(ids))
	for rows.Next() {
		var song audio.Song
		var durationSecs int
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.AssetURL, &durationSecs); err != nil {
			return nil, err
		}
		song.Duration = time.Duration(durationSecs) * time.Second
		byID[song.ID] = song
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]audio.Song, 0, len(ids))
	for _, id := range ids {
		if song, ok := byID[id]; ok {
			out = append(out, song)
		}
	}
	return out, nil
}
