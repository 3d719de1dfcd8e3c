package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/patterneng/pkg/models"
)

// QuizResultRepository handles database operations for finished quizzes
type QuizResultRepository struct {
	db *sqlx.DB
}

// NewQuizResultRepository creates a new repository instance
func NewQuizResultRepository(db *sqlx.DB) *QuizResultRepository {
	return &QuizResultRepository{db: db}
}

// QuizStats aggregates quiz results over a period
type QuizStats struct {
	TotalQuizzes   int     `json:"total_quizzes" db:"total_quizzes"`
	TotalQuestions int     `json:"total_questions" db:"total_questions"`
	TotalCorrect   int     `json:"total_correct" db:"total_correct"`
	DaysCleared    int     `json:"days_cleared" db:"days_cleared"`
	Accuracy       float64 `json:"accuracy" db:"-"` // percent of correct answers
}

// Create inserts a new quiz result
func (r *QuizResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	if err := ensureLearner(ctx, r.db, result.LearnerID); err != nil {
		return err
	}
	if result.TakenAt.IsZero() {
		result.TakenAt = time.Now().UTC()
	}

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO quiz_results (
			learner_id, day, quiz_type, total_questions, correct_answers, cleared, duration, taken_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		result.LearnerID,
		result.Day,
		result.QuizType,
		result.TotalQuestions,
		result.CorrectAnswers,
		result.Cleared,
		result.Duration,
		result.TakenAt,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to create quiz result: %w", err)
	}
	return nil
}

// ListByLearner returns all quiz results for a learner, newest first
func (r *QuizResultRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.QuizResult, error) {
	results := []models.QuizResult{}
	err := r.db.SelectContext(ctx, &results, r.db.Rebind(
		"SELECT * FROM quiz_results WHERE learner_id = ? ORDER BY taken_at DESC, id DESC"), learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz results: %w", err)
	}
	return results, nil
}

// StatsByPeriod returns quiz statistics for a learner taken in [start, end)
func (r *QuizResultRepository) StatsByPeriod(ctx context.Context, learnerID string, start, end time.Time) (*QuizStats, error) {
	var stats QuizStats
	err := r.db.GetContext(ctx, &stats, r.db.Rebind(`
		SELECT
			COUNT(*) AS total_quizzes,
			COALESCE(SUM(total_questions), 0) AS total_questions,
			COALESCE(SUM(correct_answers), 0) AS total_correct,
			COALESCE(SUM(CASE WHEN cleared THEN 1 ELSE 0 END), 0) AS days_cleared
		FROM quiz_results
		WHERE learner_id = ? AND taken_at >= ? AND taken_at < ?`),
		learnerID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz stats: %w", err)
	}

	if stats.TotalQuestions > 0 {
		stats.Accuracy = float64(stats.TotalCorrect) / float64(stats.TotalQuestions) * 100
	}
	return &stats, nil
}
