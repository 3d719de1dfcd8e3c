package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/pkg/models"
)

// FullQuizSize is the number of questions a quiz needs to clear a day.
const FullQuizSize = 40

var (
	ErrSessionNotFound = errors.New("quiz session not found")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrNotAnswered     = errors.New("current question not answered")
	ErrFinished        = errors.New("quiz already finished")
	ErrNotFinished     = errors.New("quiz not finished")
	ErrInvalidType     = errors.New("invalid quiz type")
	ErrNoQuestions     = errors.New("day has no examples")
	ErrDayLocked       = errors.New("day is locked")
)

// QuestionType selects which side of a sentence is shown.
type QuestionType string

const (
	// Korean shows the korean sentence and expects english
	Korean QuestionType = "korean"
	// English shows the english sentence and expects korean
	English QuestionType = "english"
	// Mixed picks korean or english per question
	Mixed QuestionType = "mixed"
)

// Badge is the direction label shown above a question.
func (t QuestionType) Badge() string {
	if t == Korean {
		return "한글 → 영어"
	}
	return "영어 → 한글"
}

// ParseType validates a quiz type. An empty string means Korean.
func ParseType(s string) (QuestionType, error) {
	switch QuestionType(s) {
	case "":
		return Korean, nil
	case Korean, English, Mixed:
		return QuestionType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

// Tier grades a finished quiz.
type Tier string

const (
	TierPerfect Tier = "perfect"
	TierGreat   Tier = "great"
	TierAlmost  Tier = "almost"
	TierRetry   Tier = "retry"
)

// Question is one sentence of a quiz.
type Question struct {
	ItemID       string
	English      string
	Korean       string
	PatternTitle string
	PatternColor string
	Type         QuestionType
}

func (q Question) Prompt() string {
	if q.Type == Korean {
		return q.Korean
	}
	return q.English
}

func (q Question) Answer() string {
	if q.Type == Korean {
		return q.English
	}
	return q.Korean
}

// Session is the state of one learner's quiz run.
type Session struct {
	ID         string
	LearnerID  string
	Day        int
	Type       QuestionType
	Questions  []Question
	Index      int
	Answered   bool
	Correct    int
	Wrong      []Question
	StartedAt  time.Time
	LastActive time.Time

	result  *Result
	pending *models.QuizResult // finished but not yet stored
}

// QuestionView is what a client sees of the current question.
type QuestionView struct {
	SessionID string       `json:"sessionId"`
	Day       int          `json:"day"`
	Position  int          `json:"position"` // 1-based
	Total     int          `json:"total"`
	Prompt    string       `json:"prompt"`
	Type      QuestionType `json:"type"`
	Badge     string       `json:"badge"`
	Answered  bool         `json:"answered"`
	Finished  bool         `json:"finished"`
}

// AnswerResult is the feedback for a submitted answer.
type AnswerResult struct {
	Correct bool   `json:"correct"`
	Given   string `json:"given"`
	Answer  string `json:"answer"`
	Last    bool   `json:"last"`
}

// WrongAnswer is a missed question as listed in the result.
type WrongAnswer struct {
	Prompt  string `json:"prompt"`
	Answer  string `json:"answer"`
	English string `json:"english"`
	Korean  string `json:"korean"`
}

// Result summarizes a finished quiz.
type Result struct {
	SessionID     string        `json:"sessionId"`
	Day           int           `json:"day"`
	Correct       int           `json:"correct"`
	Total         int           `json:"total"`
	Percent       int           `json:"percent"`
	Perfect       bool          `json:"perfect"`
	Cleared       bool          `json:"cleared"`
	UnlockedDay   int           `json:"unlockedDay,omitempty"`
	Tier          Tier          `json:"tier"`
	Message       string        `json:"message"`
	NeedsFullQuiz bool          `json:"needsFullQuiz"`
	Wrong         []WrongAnswer `json:"wrong"`
}

// Progress is the part of the progress service a quiz needs.
type Progress interface {
	IsDayUnlocked(ctx context.Context, learnerID string, day int) (bool, error)
	MarkCleared(ctx context.Context, learnerID string, day int) error
}

type WrongAnswerStore interface {
	Add(ctx context.Context, item *models.ReviewItem) (bool, error)
}

type ResultStore interface {
	Create(ctx context.Context, result *models.QuizResult) error
	ListByLearner(ctx context.Context, learnerID string) ([]models.QuizResult, error)
	StatsByPeriod(ctx context.Context, learnerID string, start, end time.Time) (*database.QuizStats, error)
}

// Module runs quiz sessions in memory and records their outcome.
type Module struct {
	catalog  *catalog.Catalog
	progress Progress
	wrong    WrongAnswerStore
	results  ResultStore
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	rnd      *rand.Rand
	now      func() time.Time
}

// NewModule creates a new quiz module
func NewModule(c *catalog.Catalog, progress Progress, wrong WrongAnswerStore, results ResultStore, logger *zap.Logger) *Module {
	return &Module{
		catalog:  c,
		progress: progress,
		wrong:    wrong,
		results:  results,
		logger:   logger,
		sessions: make(map[string]*Session),
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Start creates a session with up to count shuffled questions from a day.
func (m *Module) Start(ctx context.Context, learnerID string, day, count int, qtype QuestionType) (*QuestionView, error) {
	if _, err := ParseType(string(qtype)); err != nil {
		return nil, err
	}
	if qtype == "" {
		qtype = Korean
	}

	d, err := m.catalog.Day(day)
	if err != nil {
		return nil, err
	}

	ok, err := m.progress.IsDayUnlocked(ctx, learnerID, day)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: day %d", ErrDayLocked, day)
	}

	var questions []Question
	for _, p := range d.Patterns {
		for idx, ex := range p.Examples {
			questions = append(questions, Question{
				ItemID:       catalog.ItemID(day, p.ID, idx),
				English:      ex.English,
				Korean:       ex.Korean,
				PatternTitle: p.Title,
				PatternColor: p.Color,
			})
		}
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: day %d", ErrNoQuestions, day)
	}
	if count <= 0 {
		count = FullQuizSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	if len(questions) > count {
		questions = questions[:count]
	}
	for i := range questions {
		questions[i].Type = qtype
		if qtype == Mixed {
			if m.rnd.Intn(2) == 0 {
				questions[i].Type = Korean
			} else {
				questions[i].Type = English
			}
		}
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		LearnerID:  learnerID,
		Day:        day,
		Type:       qtype,
		Questions:  questions,
		StartedAt:  now,
		LastActive: now,
	}
	m.sessions[s.ID] = s

	m.logger.Info("quiz started",
		zap.String("session", s.ID),
		zap.String("learner", learnerID),
		zap.Int("day", day),
		zap.Int("questions", len(questions)),
		zap.String("type", string(qtype)),
	)

	return view(s), nil
}

// Current returns the question the session is on.
func (m *Module) Current(sessionID string) (*QuestionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return view(s), nil
}

// Answer checks an answer for the current question. Wrong answers are saved
// to the learner's review list.
func (m *Module) Answer(ctx context.Context, sessionID, answer string) (*AnswerResult, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if s.result != nil {
		m.mu.Unlock()
		return nil, ErrFinished
	}
	if s.Answered {
		m.mu.Unlock()
		return nil, ErrAlreadyAnswered
	}

	q := s.Questions[s.Index]
	res := &AnswerResult{
		Correct: IsCorrect(answer, q.Answer()),
		Given:   answer,
		Answer:  q.Answer(),
		Last:    s.Index == len(s.Questions)-1,
	}
	s.Answered = true
	s.LastActive = m.now()
	if res.Correct {
		s.Correct++
	} else {
		s.Wrong = append(s.Wrong, q)
	}
	learnerID, day := s.LearnerID, s.Day
	m.mu.Unlock()

	if !res.Correct {
		item := &models.ReviewItem{
			LearnerID:    learnerID,
			English:      q.English,
			Korean:       q.Korean,
			PatternTitle: q.PatternTitle,
			PatternColor: q.PatternColor,
			Day:          day,
			Timestamp:    m.now().UnixMilli(),
		}
		if _, err := m.wrong.Add(ctx, item); err != nil {
			m.logger.Warn("failed to save wrong answer",
				zap.String("session", sessionID),
				zap.String("english", q.English),
				zap.Error(err),
			)
		}
	}

	return res, nil
}

// Next moves past an answered question. It reports true when the quiz has
// finished, in which case the result is recorded.
func (m *Module) Next(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return false, ErrSessionNotFound
	}
	if s.result != nil {
		record := s.pending
		s.pending = nil
		m.mu.Unlock()
		if record == nil {
			return true, nil
		}
		return true, m.record(ctx, s, record)
	}
	if !s.Answered {
		m.mu.Unlock()
		return false, ErrNotAnswered
	}

	s.LastActive = m.now()
	if s.Index < len(s.Questions)-1 {
		s.Index++
		s.Answered = false
		m.mu.Unlock()
		return false, nil
	}

	s.result = buildResult(s)
	result := *s.result
	record := &models.QuizResult{
		LearnerID:      s.LearnerID,
		Day:            s.Day,
		QuizType:       string(s.Type),
		TotalQuestions: result.Total,
		CorrectAnswers: result.Correct,
		Cleared:        result.Cleared,
		Duration:       int(s.LastActive.Sub(s.StartedAt).Seconds()),
		TakenAt:        s.LastActive.UTC(),
	}
	m.mu.Unlock()

	return true, m.record(ctx, s, record)
}

// record stores a finished quiz. On failure the record is put back so the
// next call to Next retries it.
func (m *Module) record(ctx context.Context, s *Session, record *models.QuizResult) error {
	if err := m.finish(ctx, record); err != nil {
		m.mu.Lock()
		s.pending = record
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Module) finish(ctx context.Context, record *models.QuizResult) error {
	if record.Cleared {
		if err := m.progress.MarkCleared(ctx, record.LearnerID, record.Day); err != nil {
			return fmt.Errorf("clear day: %w", err)
		}
	}
	if err := m.results.Create(ctx, record); err != nil {
		return fmt.Errorf("save quiz result: %w", err)
	}

	m.logger.Info("quiz finished",
		zap.String("learner", record.LearnerID),
		zap.Int("day", record.Day),
		zap.Int("correct", record.CorrectAnswers),
		zap.Int("total", record.TotalQuestions),
		zap.Bool("cleared", record.Cleared),
	)
	return nil
}

// Result returns the summary of a finished quiz.
func (m *Module) Result(sessionID string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.result == nil {
		return nil, ErrNotFinished
	}
	r := *s.result
	return &r, nil
}

// Expire drops sessions that have been idle longer than ttl and returns how
// many were removed.
func (m *Module) Expire(ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-ttl)
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Active returns the number of sessions held in memory.
func (m *Module) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// History lists a learner's finished quizzes, newest first.
func (m *Module) History(ctx context.Context, learnerID string) ([]models.QuizResult, error) {
	return m.results.ListByLearner(ctx, learnerID)
}

// Stats aggregates a learner's quizzes taken in [from, to).
func (m *Module) Stats(ctx context.Context, learnerID string, from, to time.Time) (*database.QuizStats, error) {
	return m.results.StatsByPeriod(ctx, learnerID, from, to)
}

func view(s *Session) *QuestionView {
	q := s.Questions[s.Index]
	return &QuestionView{
		SessionID: s.ID,
		Day:       s.Day,
		Position:  s.Index + 1,
		Total:     len(s.Questions),
		Prompt:    q.Prompt(),
		Type:      q.Type,
		Badge:     q.Type.Badge(),
		Answered:  s.Answered,
		Finished:  s.result != nil,
	}
}

func buildResult(s *Session) *Result {
	total := len(s.Questions)
	percent := int(math.Round(float64(s.Correct) / float64(total) * 100))
	perfect := s.Correct == total
	full := total == FullQuizSize

	r := &Result{
		SessionID: s.ID,
		Day:       s.Day,
		Correct:   s.Correct,
		Total:     total,
		Percent:   percent,
		Perfect:   perfect,
		Cleared:   perfect && full,
		Wrong:     make([]WrongAnswer, 0, len(s.Wrong)),
	}

	switch {
	case r.Cleared:
		r.Tier = TierPerfect
		r.UnlockedDay = s.Day + 1
		r.Message = fmt.Sprintf("Day %d 클리어! Day %d이 해금되었습니다!", s.Day, s.Day+1)
	case percent == 100:
		r.Tier = TierPerfect
		r.Message = "완벽해요!"
	case percent >= 80:
		r.Tier = TierGreat
		r.Message = "훌륭해요!"
	case percent >= 60:
		r.Tier = TierAlmost
		r.Message = "조금만 더!"
	default:
		r.Tier = TierRetry
		r.Message = "다시 학습해보세요!"
	}
	if !full && percent == 100 {
		r.NeedsFullQuiz = true
		r.Message += fmt.Sprintf(" Day 클리어는 %d문제 필요!", FullQuizSize)
	}

	for _, q := range s.Wrong {
		r.Wrong = append(r.Wrong, WrongAnswer{
			Prompt:  q.Prompt(),
			Answer:  q.Answer(),
			English: q.English,
			Korean:  q.Korean,
		})
	}
	return r
}

var (
	punctuation = regexp.MustCompile(`[.,!?]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Normalize lowercases an answer and strips surrounding space and . , ! ?
func Normalize(s string) string {
	return punctuation.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// IsCorrect compares answers after normalization, also ignoring whitespace.
func IsCorrect(given, expected string) bool {
	g, e := Normalize(given), Normalize(expected)
	if g == e {
		return true
	}
	return whitespace.ReplaceAllString(g, "") == whitespace.ReplaceAllString(e, "")
}
