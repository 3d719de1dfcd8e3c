package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ClearedDayRepository stores days passed with a perfect full quiz
type ClearedDayRepository struct {
	db *sqlx.DB
}

// NewClearedDayRepository creates a new repository instance
func NewClearedDayRepository(db *sqlx.DB) *ClearedDayRepository {
	return &ClearedDayRepository{db: db}
}

// Add marks a day as cleared; clearing twice keeps the first timestamp
func (r *ClearedDayRepository) Add(ctx context.Context, learnerID string, day int) error {
	if err := ensureLearner(ctx, r.db, learnerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO cleared_days (learner_id, day, cleared_at) VALUES (?, ?, ?)
		ON CONFLICT (learner_id, day) DO NOTHING`), learnerID, day, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add cleared day: %w", err)
	}
	return nil
}

// List returns the cleared day numbers in ascending order
func (r *ClearedDayRepository) List(ctx context.Context, learnerID string) ([]int, error) {
	days := []int{}
	err := r.db.SelectContext(ctx, &days, r.db.Rebind(
		"SELECT day FROM cleared_days WHERE learner_id = ? ORDER BY day"), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleared days: %w", err)
	}
	return days, nil
}
