package progress

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/catalog"
)

// MilestoneEvery is how many completed sentences trigger a celebration.
const MilestoneEvery = 10

type CompletedStore interface {
	Add(ctx context.Context, learnerID, itemID string, day int) error
	Remove(ctx context.Context, learnerID, itemID string) error
	IsCompleted(ctx context.Context, learnerID, itemID string) (bool, error)
	ListByLearner(ctx context.Context, learnerID string) ([]string, error)
	ListByDay(ctx context.Context, learnerID string, day int) ([]string, error)
	Count(ctx context.Context, learnerID string) (int, error)
}

type ClearedStore interface {
	Add(ctx context.Context, learnerID string, day int) error
	List(ctx context.Context, learnerID string) ([]int, error)
}

// PatternProgress is the completion of one pattern's examples.
type PatternProgress struct {
	PatternID int  `json:"patternId"`
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Complete  bool `json:"complete"`
}

// DayProgress is the completion of a whole day.
type DayProgress struct {
	Day       int               `json:"day"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Percent   float64           `json:"percent"`
	Patterns  []PatternProgress `json:"patterns"`
	Items     []string          `json:"items"` // completed item IDs of the day
}

// ToggleResult describes the state after flipping an item.
type ToggleResult struct {
	ItemID         string          `json:"itemId"`
	Completed      bool            `json:"completed"`
	TotalCompleted int             `json:"totalCompleted"`
	Milestone      bool            `json:"milestone"`
	Pattern        PatternProgress `json:"pattern"`
	Day            DayProgress     `json:"day"`
	DayComplete    bool            `json:"dayComplete"`
}

// DaySummary is one entry of the day selector.
type DaySummary struct {
	Day      int    `json:"day"`
	Title    string `json:"title"`
	Total    int    `json:"total"`
	Unlocked bool   `json:"unlocked"`
	Cleared  bool   `json:"cleared"`
}

type Service struct {
	catalog   *catalog.Catalog
	completed CompletedStore
	cleared   ClearedStore
	lockDays  bool
	logger    *zap.Logger
}

func NewService(c *catalog.Catalog, completed CompletedStore, cleared ClearedStore, lockDays bool, logger *zap.Logger) *Service {
	return &Service{
		catalog:   c,
		completed: completed,
		cleared:   cleared,
		lockDays:  lockDays,
		logger:    logger,
	}
}

// Toggle flips the completion of a single example sentence.
func (s *Service) Toggle(ctx context.Context, learnerID, itemID string) (*ToggleResult, error) {
	if _, _, err := s.catalog.Example(itemID); err != nil {
		return nil, err
	}
	day, patternID, _, _ := catalog.ParseItemID(itemID)

	done, err := s.completed.IsCompleted(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}

	if done {
		err = s.completed.Remove(ctx, learnerID, itemID)
	} else {
		err = s.completed.Add(ctx, learnerID, itemID, day)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.completed.Count(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	dp, err := s.DayProgress(ctx, learnerID, day)
	if err != nil {
		return nil, err
	}

	res := &ToggleResult{
		ItemID:         itemID,
		Completed:      !done,
		TotalCompleted: total,
		Milestone:      !done && total > 0 && total%MilestoneEvery == 0,
		Day:            *dp,
		DayComplete:    dp.Total > 0 && dp.Completed == dp.Total,
	}
	for _, pp := range dp.Patterns {
		if pp.PatternID == patternID {
			res.Pattern = pp
			break
		}
	}

	s.logger.Debug("toggled item",
		zap.String("learner", learnerID),
		zap.String("item", itemID),
		zap.Bool("completed", res.Completed),
		zap.Int("total", total),
	)

	return res, nil
}

// DayProgress counts completed examples per pattern for one day.
func (s *Service) DayProgress(ctx context.Context, learnerID string, day int) (*DayProgress, error) {
	d, err := s.catalog.Day(day)
	if err != nil {
		return nil, err
	}

	items, err := s.completed.ListByDay(ctx, learnerID, day)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(items))
	for _, id := range items {
		done[id] = true
	}

	dp := &DayProgress{
		Day:      day,
		Patterns: make([]PatternProgress, 0, len(d.Patterns)),
		Items:    make([]string, 0, len(items)),
	}
	for _, p := range d.Patterns {
		pp := PatternProgress{PatternID: p.ID, Total: len(p.Examples)}
		for idx := range p.Examples {
			id := catalog.ItemID(day, p.ID, idx)
			if done[id] {
				pp.Completed++
				dp.Items = append(dp.Items, id)
			}
		}
		pp.Complete = pp.Completed == pp.Total
		dp.Completed += pp.Completed
		dp.Total += pp.Total
		dp.Patterns = append(dp.Patterns, pp)
	}

	if dp.Total > 0 {
		dp.Percent = float64(dp.Completed) / float64(dp.Total) * 100
	}

	return dp, nil
}

// CompletedItems returns every completed item ID of a learner.
func (s *Service) CompletedItems(ctx context.Context, learnerID string) ([]string, error) {
	return s.completed.ListByLearner(ctx, learnerID)
}

// CompletedCount returns how many sentences the learner has completed.
func (s *Service) CompletedCount(ctx context.Context, learnerID string) (int, error) {
	return s.completed.Count(ctx, learnerID)
}

// ClearedDays returns the cleared day numbers. Day 0 is always cleared so
// that day 1 is never locked.
func (s *Service) ClearedDays(ctx context.Context, learnerID string) ([]int, error) {
	days, err := s.cleared.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	out := []int{0}
	for _, d := range days {
		if d != 0 {
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

// MarkCleared records a day as cleared.
func (s *Service) MarkCleared(ctx context.Context, learnerID string, day int) error {
	if _, err := s.catalog.Day(day); err != nil {
		return err
	}
	if err := s.cleared.Add(ctx, learnerID, day); err != nil {
		return fmt.Errorf("mark day %d cleared: %w", day, err)
	}
	s.logger.Info("day cleared", zap.String("learner", learnerID), zap.Int("day", day))
	return nil
}

// IsDayUnlocked reports whether the learner may study or take a quiz on the day.
func (s *Service) IsDayUnlocked(ctx context.Context, learnerID string, day int) (bool, error) {
	if !s.lockDays {
		return true, nil
	}
	cleared, err := s.ClearedDays(ctx, learnerID)
	if err != nil {
		return false, err
	}
	return unlocked(day, cleared), nil
}

// Days lists the day selector entries.
func (s *Service) Days(ctx context.Context, learnerID string) ([]DaySummary, error) {
	cleared, err := s.ClearedDays(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	isCleared := make(map[int]bool, len(cleared))
	for _, d := range cleared {
		isCleared[d] = true
	}

	days := s.catalog.Days()
	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		out = append(out, DaySummary{
			Day:      d.Day,
			Title:    d.Title,
			Total:    s.catalog.TotalExamples(d.Day),
			Unlocked: !s.lockDays || unlocked(d.Day, cleared),
			Cleared:  isCleared[d.Day],
		})
	}
	return out, nil
}

func unlocked(day int, cleared []int) bool {
	if day <= 1 {
		return true
	}
	for _, d := range cleared {
		if d == day-1 {
			return true
		}
	}
	return false
}
