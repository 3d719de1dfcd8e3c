package models

// Catalog is the full set of study days loaded from the lesson file
type Catalog struct {
	Days []Day `json:"days"`
}

// Day is a lesson unit grouping several sentence patterns
type Day struct {
	Day      int       `json:"day"`
	Title    string    `json:"title"`
	Patterns []Pattern `json:"patterns"`
}

// Pattern is a grammatical template with its example sentences
type Pattern struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Color       string       `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	Examples    []Example    `json:"examples"`
	Vocab       []VocabEntry `json:"vocab,omitempty"`
}

// Example is a single english/korean sentence pair
type Example struct {
	English string `json:"english"`
	Korean  string `json:"korean"`
}

// VocabEntry is a key word shown next to a pattern
type VocabEntry struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}
