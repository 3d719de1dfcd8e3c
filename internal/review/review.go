package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/pkg/models"
)

var (
	ErrEmptyDeck     = errors.New("no cards to review")
	ErrInvalidSource = errors.New("invalid flashcard source")
	ErrInvalidItem   = errors.New("english text is required")
	ErrInvalidAction = errors.New("invalid flashcard action")
)

// Store is a per-learner list of review items keyed by english text.
type Store interface {
	List(ctx context.Context, learnerID string) ([]models.ReviewItem, error)
	Get(ctx context.Context, learnerID string, id int64) (*models.ReviewItem, error)
	FindByEnglish(ctx context.Context, learnerID, english string) (*models.ReviewItem, error)
	Add(ctx context.Context, item *models.ReviewItem) (bool, error)
	Delete(ctx context.Context, learnerID string, id int64) error
	DeleteByEnglish(ctx context.Context, learnerID, english string) error
	Count(ctx context.Context, learnerID string) (int, error)
}

// Service manages wrong answers and bookmarks.
type Service struct {
	wrong     Store
	bookmarks Store
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(wrong, bookmarks Store, logger *zap.Logger) *Service {
	return &Service{
		wrong:     wrong,
		bookmarks: bookmarks,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WrongAnswers(ctx context.Context, learnerID string) ([]models.ReviewItem, error) {
	return s.wrong.List(ctx, learnerID)
}

func (s *Service) Bookmarks(ctx context.Context, learnerID string) ([]models.ReviewItem, error) {
	return s.bookmarks.List(ctx, learnerID)
}

// WrongCount returns how many wrong answers wait for review.
func (s *Service) WrongCount(ctx context.Context, learnerID string) (int, error) {
	return s.wrong.Count(ctx, learnerID)
}

// ToggleBookmark bookmarks the sentence of a wrong answer, or removes the
// bookmark if it already exists. It returns the new bookmark state.
func (s *Service) ToggleBookmark(ctx context.Context, learnerID string, wrongID int64) (bool, error) {
	item, err := s.wrong.Get(ctx, learnerID, wrongID)
	if err != nil {
		return false, err
	}

	_, err = s.bookmarks.FindByEnglish(ctx, learnerID, item.English)
	switch {
	case err == nil:
		if err := s.bookmarks.DeleteByEnglish(ctx, learnerID, item.English); err != nil {
			return false, err
		}
		return false, nil
	case !errors.Is(err, database.ErrReviewItemNotFound):
		return false, err
	}

	bm := *item
	bm.ID = 0
	if _, err := s.bookmarks.Add(ctx, &bm); err != nil {
		return false, err
	}
	return true, nil
}

// AddBookmark saves a sentence as a bookmark. Saving the same english text
// twice returns the existing bookmark.
func (s *Service) AddBookmark(ctx context.Context, learnerID string, item models.ReviewItem) (*models.ReviewItem, bool, error) {
	item.English = strings.TrimSpace(item.English)
	if item.English == "" {
		return nil, false, ErrInvalidItem
	}
	item.ID = 0
	item.LearnerID = learnerID
	if item.Timestamp == 0 {
		item.Timestamp = s.now().UnixMilli()
	}

	created, err := s.bookmarks.Add(ctx, &item)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Debug("bookmark added", zap.String("learner", learnerID), zap.String("english", item.English))
	}
	return &item, created, nil
}

func (s *Service) DeleteWrong(ctx context.Context, learnerID string, id int64) error {
	return s.wrong.Delete(ctx, learnerID, id)
}

func (s *Service) DeleteBookmark(ctx context.Context, learnerID string, id int64) error {
	return s.bookmarks.Delete(ctx, learnerID, id)
}

// IsBookmarked reports whether the english sentence is bookmarked.
func (s *Service) IsBookmarked(ctx context.Context, learnerID, english string) (bool, error) {
	_, err := s.bookmarks.FindByEnglish(ctx, learnerID, english)
	if errors.Is(err, database.ErrReviewItemNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Source selects the list a flashcard deck is built from.
type Source string

const (
	SourceWrong    Source = "wrong"
	SourceBookmark Source = "bookmark"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "", SourceWrong:
		return SourceWrong, nil
	case SourceBookmark, "bookmarks":
		return SourceBookmark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

// Deck builds flashcards over a snapshot of a learner's list, positioned at start.
func (s *Service) Deck(ctx context.Context, learnerID string, source Source, start int) (*Deck, error) {
	var store Store
	switch source {
	case SourceWrong:
		store = s.wrong
	case SourceBookmark:
		store = s.bookmarks
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}

	items, err := store.List(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return NewDeck(items, start)
}
