package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CompletedRepository stores which example sentences a learner has checked off
type CompletedRepository struct {
	db *sqlx.DB
}

// NewCompletedRepository creates a new repository instance
func NewCompletedRepository(db *sqlx.DB) *CompletedRepository {
	return &CompletedRepository{db: db}
}

// Add marks an item as completed. Adding an already completed item is a no-op.
func (r *CompletedRepository) Add(ctx context.Context, learnerID, itemID string, day int) error {
	if err := ensureLearner(ctx, r.db, learnerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO completed_items (learner_id, item_id, day, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (learner_id, item_id) DO NOTHING`),
		learnerID, itemID, day, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to add completed item: %w", err)
	}
	return nil
}

// Remove clears the completion of an item
func (r *CompletedRepository) Remove(ctx context.Context, learnerID, itemID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		"DELETE FROM completed_items WHERE learner_id = ? AND item_id = ?"), learnerID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove completed item: %w", err)
	}
	return nil
}

// IsCompleted reports whether the item is completed
func (r *CompletedRepository) IsCompleted(ctx context.Context, learnerID, itemID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(
		"SELECT COUNT(*) FROM completed_items WHERE learner_id = ? AND item_id = ?"), learnerID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to check completed item: %w", err)
	}
	return n > 0, nil
}

// ListByLearner returns every completed item ID of a learner
func (r *CompletedRepository) ListByLearner(ctx context.Context, learnerID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, r.db.Rebind(
		"SELECT item_id FROM completed_items WHERE learner_id = ? ORDER BY item_id"), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed items: %w", err)
	}
	return ids, nil
}

// ListByDay returns the completed item IDs of one day
func (r *CompletedRepository) ListByDay(ctx context.Context, learnerID string, day int) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, r.db.Rebind(
		"SELECT item_id FROM completed_items WHERE learner_id = ? AND day = ? ORDER BY item_id"), learnerID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed items for day: %w", err)
	}
	return ids, nil
}

// Count returns how many items a learner has completed in total
func (r *CompletedRepository) Count(ctx context.Context, learnerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(
		"SELECT COUNT(*) FROM completed_items WHERE learner_id = ?"), learnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed items: %w", err)
	}
	return n, nil
}
