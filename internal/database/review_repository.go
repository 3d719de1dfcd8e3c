package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/patterneng/pkg/models"
)

const (
	WrongAnswersTable = "wrong_answers"
	BookmarksTable    = "bookmarks"
)

var ErrReviewItemNotFound = errors.New("review item not found")

// ReviewRepository handles a list of review items. Wrong answers and bookmarks
// share the same shape and live in separate tables.
type ReviewRepository struct {
	db    *sqlx.DB
	table string
}

// NewWrongAnswerRepository returns the repository of quiz mistakes
func NewWrongAnswerRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db, table: WrongAnswersTable}
}

// NewBookmarkRepository returns the repository of bookmarked sentences
func NewBookmarkRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db, table: BookmarksTable}
}

// List returns a learner's items in the order they were saved
func (r *ReviewRepository) List(ctx context.Context, learnerID string) ([]models.ReviewItem, error) {
	items := []models.ReviewItem{}
	err := r.db.SelectContext(ctx, &items, r.db.Rebind(
		"SELECT * FROM "+r.table+" WHERE learner_id = ? ORDER BY id"), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	return items, nil
}

// Get returns one item of a learner by ID
func (r *ReviewRepository) Get(ctx context.Context, learnerID string, id int64) (*models.ReviewItem, error) {
	var item models.ReviewItem
	err := r.db.GetContext(ctx, &item, r.db.Rebind(
		"SELECT * FROM "+r.table+" WHERE learner_id = ? AND id = ?"), learnerID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s item: %w", r.table, err)
	}
	return &item, nil
}

// FindByEnglish returns the item saved for an english sentence
func (r *ReviewRepository) FindByEnglish(ctx context.Context, learnerID, english string) (*models.ReviewItem, error) {
	var item models.ReviewItem
	err := r.db.GetContext(ctx, &item, r.db.Rebind(
		"SELECT * FROM "+r.table+" WHERE learner_id = ? AND english = ?"), learnerID, english)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s item: %w", r.table, err)
	}
	return &item, nil
}

// Add saves the item unless the learner already has one with the same english
// text. It reports whether a new row was created and fills item.ID either way.
func (r *ReviewRepository) Add(ctx context.Context, item *models.ReviewItem) (bool, error) {
	if err := ensureLearner(ctx, r.db, item.LearnerID); err != nil {
		return false, err
	}

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO `+r.table+` (learner_id, english, korean, pattern_title, pattern_color, day, saved_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (learner_id, english) DO NOTHING
		RETURNING id`),
		item.LearnerID, item.English, item.Korean, item.PatternTitle, item.PatternColor, item.Day, item.Timestamp,
	).Scan(&item.ID)

	if errors.Is(err, sql.ErrNoRows) {
		existing, findErr := r.FindByEnglish(ctx, item.LearnerID, item.English)
		if findErr != nil {
			return false, findErr
		}
		*item = *existing
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to add %s item: %w", r.table, err)
	}
	return true, nil
}

// Delete removes an item by ID
func (r *ReviewRepository) Delete(ctx context.Context, learnerID string, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"DELETE FROM "+r.table+" WHERE learner_id = ? AND id = ?"), learnerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s item: %w", r.table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewItemNotFound
	}
	return nil
}

// DeleteByEnglish removes the item saved for an english sentence
func (r *ReviewRepository) DeleteByEnglish(ctx context.Context, learnerID, english string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(
		"DELETE FROM "+r.table+" WHERE learner_id = ? AND english = ?"), learnerID, english)
	if err != nil {
		return fmt.Errorf("failed to delete %s item: %w", r.table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewItemNotFound
	}
	return nil
}

// Count returns how many items a learner has
func (r *ReviewRepository) Count(ctx context.Context, learnerID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(
		"SELECT COUNT(*) FROM "+r.table+" WHERE learner_id = ?"), learnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return n, nil
}
