package models

import "time"

// QuizResult records a finished quiz session
type QuizResult struct {
	ID             int64     `json:"id" db:"id"`
	LearnerID      string    `json:"learner_id" db:"learner_id"`
	Day            int       `json:"day" db:"day"`
	QuizType       string    `json:"quiz_type" db:"quiz_type"` // "korean", "english" or "mixed"
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	CorrectAnswers int       `json:"correct_answers" db:"correct_answers"`
	Cleared        bool      `json:"cleared" db:"cleared"`
	Duration       int       `json:"duration" db:"duration"` // Duration in seconds
	TakenAt        time.Time `json:"taken_at" db:"taken_at"`
}
