package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/example/patterneng/pkg/models"
)

var (
	ErrUnknownDay     = errors.New("unknown day")
	ErrUnknownPattern = errors.New("unknown pattern")
	ErrUnknownItem    = errors.New("unknown item")
	ErrInvalidItemID  = errors.New("invalid item id")
)

// Catalog is the read-only lesson data with lookups by day and item ID.
type Catalog struct {
	days  []models.Day
	index map[int]int // day number -> position in days
}

// New validates and indexes the given lesson data.
func New(data models.Catalog) (*Catalog, error) {
	days := make([]models.Day, len(data.Days))
	copy(days, data.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	c := &Catalog{
		days:  days,
		index: make(map[int]int, len(days)),
	}

	for i, day := range days {
		if _, dup := c.index[day.Day]; dup {
			return nil, fmt.Errorf("duplicate day %d", day.Day)
		}
		c.index[day.Day] = i

		seen := make(map[int]bool, len(day.Patterns))
		for _, p := range day.Patterns {
			if seen[p.ID] {
				return nil, fmt.Errorf("day %d: duplicate pattern %d", day.Day, p.ID)
			}
			seen[p.ID] = true
		}
	}

	return c, nil
}

// Load reads the lesson file, choosing the format by extension.
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".csv":
		cfg := DefaultImportConfig()
		cfg.FilePath = path
		data, result, err := Import(cfg)
		if err != nil {
			return nil, err
		}
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("import %s: %d bad rows, first: %s", path, len(result.Errors), result.Errors[0])
		}
		return New(*data)
	default:
		return loadJSON(path)
	}
}

func loadJSON(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var data models.Catalog
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return New(data)
}

// Days returns every day in ascending order.
func (c *Catalog) Days() []models.Day {
	return c.days
}

// Day returns the day with the given number.
func (c *Catalog) Day(n int) (*models.Day, error) {
	i, ok := c.index[n]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDay, n)
	}
	return &c.days[i], nil
}

// Pattern returns a pattern of a day.
func (c *Catalog) Pattern(day, patternID int) (*models.Pattern, error) {
	d, err := c.Day(day)
	if err != nil {
		return nil, err
	}
	for i := range d.Patterns {
		if d.Patterns[i].ID == patternID {
			return &d.Patterns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: day %d pattern %d", ErrUnknownPattern, day, patternID)
}

// Example resolves an item ID to its sentence pair and pattern.
func (c *Catalog) Example(itemID string) (models.Example, *models.Pattern, error) {
	day, patternID, idx, err := ParseItemID(itemID)
	if err != nil {
		return models.Example{}, nil, err
	}
	p, err := c.Pattern(day, patternID)
	if err != nil {
		return models.Example{}, nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if idx >= len(p.Examples) {
		return models.Example{}, nil, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return p.Examples[idx], p, nil
}

// TotalExamples counts the example sentences of a day.
func (c *Catalog) TotalExamples(day int) int {
	d, err := c.Day(day)
	if err != nil {
		return 0
	}
	total := 0
	for _, p := range d.Patterns {
		total += len(p.Examples)
	}
	return total
}

// Sentences returns every distinct english sentence in catalog order.
func (c *Catalog) Sentences() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range c.days {
		for _, p := range d.Patterns {
			for _, ex := range p.Examples {
				if ex.English == "" || seen[ex.English] {
					continue
				}
				seen[ex.English] = true
				out = append(out, ex.English)
			}
		}
	}
	return out
}

// ItemID builds the completion key of an example: "{day}_{patternId}_{index}".
func ItemID(day, patternID, idx int) string {
	return fmt.Sprintf("%d_%d_%d", day, patternID, idx)
}

// ParseItemID splits an item ID back into its parts. Only the form ItemID
// produces is accepted.
func ParseItemID(id string) (day, patternID, idx int, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
		}
		nums[i] = n
	}
	if ItemID(nums[0], nums[1], nums[2]) != id {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}

	return nums[0], nums[1], nums[2], nil
}
