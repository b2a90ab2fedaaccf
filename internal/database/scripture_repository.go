package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/tbeech/runsheet/internal/catalog"
)

type ScriptureRepository struct {
	db *sql.DB
}

func NewScriptureRepository() *ScriptureRepository {
	return &ScriptureRepository{db: GetDB()}
}

func (r *ScriptureRepository) Chapter(ctx context.Context, id string) (catalog.Chapter, error) {
	if r == nil || r.db == nil {
		return catalog.Chapter{}, fmt.Errorf("chapter %s: %w", id, catalog.ErrNotFound)
	}

	const query = `
		SELECT id, reference, version, verses
		FROM scripture_chapters
		WHERE id = $1
	`

	var chapter catalog.Chapter
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&chapter.ID, &chapter.Reference, &chapter.Version, pq.Array(&chapter.Verses),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Chapter{}, fmt.Errorf("chapter %s: %w", id, catalog.ErrNotFound)
		}
		return catalog.Chapter{}, err
	}

	return chapter, nil
}
