package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/patterneng/pkg/models"
)

var ErrLearnerNotFound = errors.New("learner not found")

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

// Ensure creates the learner row if it does not exist yet
func (r *LearnerRepository) Ensure(ctx context.Context, learnerID string) error {
	return ensureLearner(ctx, r.db, learnerID)
}

// Get returns a learner by ID
func (r *LearnerRepository) Get(ctx context.Context, learnerID string) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l, r.db.Rebind("SELECT * FROM learners WHERE id = ?"), learnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return &l, nil
}

// LinkTelegram attaches a Telegram chat to the learner and sets the reminder flag
func (r *LearnerRepository) LinkTelegram(ctx context.Context, learnerID string, chatID int64, reminders bool) error {
	if err := ensureLearner(ctx, r.db, learnerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE learners SET telegram_chat_id = ?, reminders_enabled = ?, updated_at = ?
		WHERE id = ?`), chatID, reminders, time.Now().UTC(), learnerID)
	if err != nil {
		return fmt.Errorf("failed to link telegram chat: %w", err)
	}
	return nil
}

// SetReminders toggles daily reminders for a learner
func (r *LearnerRepository) SetReminders(ctx context.Context, learnerID string, enabled bool) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE learners SET reminders_enabled = ?, updated_at = ? WHERE id = ?`),
		enabled, time.Now().UTC(), learnerID)
	if err != nil {
		return fmt.Errorf("failed to update reminders: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLearnerNotFound
	}
	return nil
}

// GetByTelegramChat returns the learner linked to a chat
func (r *LearnerRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*models.Learner, error) {
	var l models.Learner
	err := r.db.GetContext(ctx, &l, r.db.Rebind("SELECT * FROM learners WHERE telegram_chat_id = ? ORDER BY updated_at DESC LIMIT 1"), chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learner by chat: %w", err)
	}
	return &l, nil
}

// ListForReminders returns learners with a linked chat and reminders on
func (r *LearnerRepository) ListForReminders(ctx context.Context) ([]models.Learner, error) {
	var learners []models.Learner
	err := r.db.SelectContext(ctx, &learners,
		"SELECT * FROM learners WHERE telegram_chat_id <> 0 AND reminders_enabled = TRUE ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list learners for reminders: %w", err)
	}
	return learners, nil
}

func ensureLearner(ctx context.Context, db sqlx.ExtContext, learnerID string) error {
	if learnerID == "" {
		return fmt.Errorf("learner id is required")
	}
	_, err := db.ExecContext(ctx, db.Rebind(
		"INSERT INTO learners (id) VALUES (?) ON CONFLICT (id) DO NOTHING"), learnerID)
	if err != nil {
		return fmt.Errorf("failed to ensure learner: %w", err)
	}
	return nil
}
