package models

// ReviewItem is a sentence saved for later review, either because it was
// answered wrong in a quiz or because the learner bookmarked it
type ReviewItem struct {
	ID           int64  `json:"id" db:"id"`
	LearnerID    string `json:"-" db:"learner_id"`
	English      string `json:"english" db:"english"`
	Korean       string `json:"korean" db:"korean"`
	PatternTitle string `json:"patternTitle" db:"pattern_title"`
	PatternColor string `json:"patternColor" db:"pattern_color"`
	Day          int    `json:"day" db:"day"`
	Timestamp    int64  `json:"timestamp" db:"saved_at_ms"` // Unix milliseconds
}
