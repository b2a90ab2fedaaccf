package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tbeech/runsheet/internal/catalog"
	"github.com/tbeech/runsheet/internal/plan"
)

const planRepoTimeout = 5 * time.Second

type PlanRepository struct {
	db *sql.DB
}

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{db: GetDB()}
}

// Plan loads a service plan with its items ordered by position.
func (r *PlanRepository) Plan(ctx context.Context, id string) (*plan.Plan, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("plan %s: %w", id, catalog.ErrNotFound)
	}

	const planQuery = `
		SELECT id, title, service_date, completed_at, notes
		FROM service_plans
		WHERE id = $1
	`

	p := &plan.Plan{}
	var completedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, planQuery, id).Scan(
		&p.ID, &p.Title, &p.ServiceDate, &completedAt, &p.Notes,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("plan %s: %w", id, catalog.ErrNotFound)
		}
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}

	const itemQuery = `
		SELECT id, position, item_type, title, notes, estimated_seconds, item_data
		FROM plan_items
		WHERE plan_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, itemQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item plan.Item
		var rawData []byte
		if err := rows.Scan(&item.ID, &item.Position, &item.Type, &item.Title, &item.Notes, &item.EstimatedSeconds, &rawData); err != nil {
			return nil, err
		}
		if len(rawData) > 0 {
			if err := json.Unmarshal(rawData, &item.Data); err != nil {
				return nil, fmt.Errorf("plan %s item %s: bad item_data: %w", id, item.ID, err)
			}
		}
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

// MarkComplete stamps the plan completed and stores the post-session notes.
// Already-completed plans keep their original timestamp.
func (r *PlanRepository) MarkComplete(planID, notes string) error {
	if r == nil || r.db == nil {
		return nil
	}
	if planID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), planRepoTimeout)
	defer cancel()

	const query = `
		UPDATE service_plans
		SET completed_at = COALESCE(completed_at, NOW()),
		    notes = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, planID, notes)
	return err
}
