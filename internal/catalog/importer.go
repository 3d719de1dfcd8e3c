package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/patterneng/pkg/models"
)

// ImportConfig defines where each field lives in a lesson spreadsheet
type ImportConfig struct {
	FilePath           string // Path to the Excel or CSV file
	DayColumn          string // Column with the day number
	DayTitleColumn     string // Column with the day title
	PatternIDColumn    string // Column with the pattern ID
	PatternTitleColumn string // Column with the pattern title
	PatternColorColumn string // Column with the pattern color
	EnglishColumn      string // Column with the english sentence
	KoreanColumn       string // Column with the korean sentence
	VocabColumn        string // Column with "word=meaning;word=meaning" entries
	SheetName          string // Name of the sheet to import
	StartRow           int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		DayColumn:          "A",
		DayTitleColumn:     "B",
		PatternIDColumn:    "C",
		PatternTitleColumn: "D",
		PatternColorColumn: "E",
		EnglishColumn:      "F",
		KoreanColumn:       "G",
		VocabColumn:        "H",
		SheetName:          "Sheet1",
		StartRow:           2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int
	DaysCreated     int
	PatternsCreated int
	Examples        int
	Skipped         int
	Errors          []string
}

// Import reads a lesson spreadsheet (.xlsx or .csv) into catalog data.
func Import(config ImportConfig) (*models.Catalog, *ImportResult, error) {
	var (
		rows [][]string
		err  error
	)

	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, nil, err
	}

	b := newBuilder()
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			result.Skipped++
			continue
		}

		result.TotalProcessed++

		if err := processRow(row, config, b, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return b.catalog(), result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow turns one spreadsheet row into an example of a pattern
func processRow(row []string, config ImportConfig, b *builder, result *ImportResult) error {
	cell := func(column string) string {
		if column == "" {
			return ""
		}
		if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	day, err := strconv.Atoi(cell(config.DayColumn))
	if err != nil || day < 0 {
		return fmt.Errorf("invalid day %q", cell(config.DayColumn))
	}
	patternID, err := strconv.Atoi(cell(config.PatternIDColumn))
	if err != nil || patternID < 0 {
		return fmt.Errorf("invalid pattern id %q", cell(config.PatternIDColumn))
	}

	english := cell(config.EnglishColumn)
	korean := cell(config.KoreanColumn)
	if english == "" {
		return fmt.Errorf("english sentence cannot be empty")
	}
	if korean == "" {
		return fmt.Errorf("korean sentence cannot be empty")
	}

	vocab, err := parseVocab(cell(config.VocabColumn))
	if err != nil {
		return err
	}

	d, created := b.day(day, cell(config.DayTitleColumn))
	if created {
		result.DaysCreated++
	}
	p, created := b.pattern(d, patternID, cell(config.PatternTitleColumn), cell(config.PatternColorColumn))
	if created {
		result.PatternsCreated++
	}

	p.Examples = append(p.Examples, models.Example{English: english, Korean: korean})
	p.Vocab = mergeVocab(p.Vocab, vocab)
	result.Examples++

	return nil
}

// parseVocab reads "word=meaning;word=meaning"
func parseVocab(s string) ([]models.VocabEntry, error) {
	if s == "" {
		return nil, nil
	}
	var out []models.VocabEntry
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		word, meaning, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(word) == "" {
			return nil, fmt.Errorf("invalid vocab entry %q", part)
		}
		out = append(out, models.VocabEntry{Word: strings.TrimSpace(word), Meaning: strings.TrimSpace(meaning)})
	}
	return out, nil
}

func mergeVocab(existing, add []models.VocabEntry) []models.VocabEntry {
	for _, v := range add {
		dup := false
		for _, e := range existing {
			if strings.EqualFold(e.Word, v.Word) {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, v)
		}
	}
	return existing
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// builder keeps days and patterns in first-seen order while rows arrive
type builder struct {
	days []*dayDraft
	byNo map[int]*dayDraft
}

type dayDraft struct {
	day      models.Day
	patterns []*models.Pattern
	byID     map[int]*models.Pattern
}

func newBuilder() *builder {
	return &builder{byNo: make(map[int]*dayDraft)}
}

func (b *builder) day(n int, title string) (*dayDraft, bool) {
	if d, ok := b.byNo[n]; ok {
		if d.day.Title == "" {
			d.day.Title = title
		}
		return d, false
	}
	d := &dayDraft{
		day:  models.Day{Day: n, Title: title},
		byID: make(map[int]*models.Pattern),
	}
	b.byNo[n] = d
	b.days = append(b.days, d)
	return d, true
}

func (b *builder) pattern(d *dayDraft, id int, title, color string) (*models.Pattern, bool) {
	if p, ok := d.byID[id]; ok {
		return p, false
	}
	p := &models.Pattern{ID: id, Title: title, Color: color}
	d.byID[id] = p
	d.patterns = append(d.patterns, p)
	return p, true
}

func (b *builder) catalog() *models.Catalog {
	out := &models.Catalog{Days: make([]models.Day, 0, len(b.days))}
	for _, d := range b.days {
		day := d.day
		for _, p := range d.patterns {
			day.Patterns = append(day.Patterns, *p)
		}
		out.Days = append(out.Days, day)
	}
	return out
}
