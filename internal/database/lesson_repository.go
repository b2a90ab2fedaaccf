package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tbeech/runsheet/internal/catalog"
)

type LessonRepository struct {
	db *sql.DB
}

func NewLessonRepository() *LessonRepository {
	return &LessonRepository{db: GetDB()}
}

func (r *LessonRepository) Lesson(ctx context.Context, id string) (catalog.Lesson, error) {
	if r == nil || r.db == nil {
		return catalog.Lesson{}, fmt.Errorf("lesson %s: %w", id, catalog.ErrNotFound)
	}

	var lesson catalog.Lesson
	err := r.db.QueryRowContext(ctx, `SELECT id, title FROM lessons WHERE id = $1`, id).
		Scan(&lesson.ID, &lesson.Title)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Lesson{}, fmt.Errorf("lesson %s: %w", id, catalog.ErrNotFound)
		}
		return catalog.Lesson{}, err
	}

	const blockQuery = `
		SELECT label, content, projectable
		FROM lesson_blocks
		WHERE lesson_id = $1
		ORDER BY block_index
	`

	rows, err := r.db.QueryContext(ctx, blockQuery, id)
	if err != nil {
		return catalog.Lesson{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var block catalog.LessonBlock
		if err := rows.Scan(&block.Label, &block.Content, &block.Projectable); err != nil {
			return catalog.Lesson{}, err
		}
		lesson.Blocks = append(lesson.Blocks, block)
	}
	if err := rows.Err(); err != nil {
		return catalog.Lesson{}, err
	}

	return lesson, nil
}
