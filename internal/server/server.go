package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/ai"
	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/config"
	"github.com/example/patterneng/internal/progress"
	"github.com/example/patterneng/internal/quiz"
	"github.com/example/patterneng/internal/review"
	"github.com/example/patterneng/internal/tts"
	"github.com/example/patterneng/pkg/models"
)

// Chatter answers tutor chat messages.
type Chatter interface {
	Reply(ctx context.Context, message string, history []ai.Turn) (string, error)
}

type LearnerStore interface {
	Get(ctx context.Context, learnerID string) (*models.Learner, error)
	LinkTelegram(ctx context.Context, learnerID string, chatID int64, reminders bool) error
	SetReminders(ctx context.Context, learnerID string, enabled bool) error
}

// Services are the dependencies of the HTTP API. TTS, Audio and Chat may be
// nil when they are not configured.
type Services struct {
	Catalog  *catalog.Catalog
	Progress *progress.Service
	Quiz     *quiz.Module
	Review   *review.Service
	Learners LearnerStore
	TTS      tts.Synthesizer
	Audio    *tts.Cache
	Chat     Chatter
}

type Server struct {
	svc             Services
	logger          *zap.Logger
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

func New(cfg config.HTTP, svc Services, logger *zap.Logger) *Server {
	s := &Server{
		svc:             svc,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 5 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/tts", s.handleTTS)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/days", s.handleListDays)
	mux.HandleFunc("GET /api/days/{day}", s.handleGetDay)

	mux.HandleFunc("GET /api/learners/{learner}/days", s.withLearner(s.handleLearnerDays))
	mux.HandleFunc("GET /api/learners/{learner}/days/{day}/progress", s.withLearner(s.handleDayProgress))
	mux.HandleFunc("POST /api/learners/{learner}/completed/{item}/toggle", s.withLearner(s.handleToggle))
	mux.HandleFunc("GET /api/learners/{learner}/completed", s.withLearner(s.handleCompleted))
	mux.HandleFunc("GET /api/learners/{learner}/cleared", s.withLearner(s.handleCleared))

	mux.HandleFunc("POST /api/learners/{learner}/quiz", s.withLearner(s.handleStartQuiz))
	mux.HandleFunc("GET /api/learners/{learner}/quiz/history", s.withLearner(s.handleQuizHistory))
	mux.HandleFunc("GET /api/quiz/{session}", s.handleQuizCurrent)
	mux.HandleFunc("POST /api/quiz/{session}/answer", s.handleQuizAnswer)
	mux.HandleFunc("POST /api/quiz/{session}/next", s.handleQuizNext)
	mux.HandleFunc("GET /api/quiz/{session}/result", s.handleQuizResult)

	mux.HandleFunc("GET /api/learners/{learner}/wrong", s.withLearner(s.handleListWrong))
	mux.HandleFunc("DELETE /api/learners/{learner}/wrong/{id}", s.withLearner(s.handleDeleteWrong))
	mux.HandleFunc("POST /api/learners/{learner}/wrong/{id}/bookmark", s.withLearner(s.handleToggleBookmark))
	mux.HandleFunc("GET /api/learners/{learner}/bookmarks", s.withLearner(s.handleListBookmarks))
	mux.HandleFunc("POST /api/learners/{learner}/bookmarks", s.withLearner(s.handleAddBookmark))
	mux.HandleFunc("DELETE /api/learners/{learner}/bookmarks/{id}", s.withLearner(s.handleDeleteBookmark))
	mux.HandleFunc("GET /api/learners/{learner}/flashcards", s.withLearner(s.handleFlashcard))

	mux.HandleFunc("PUT /api/learners/{learner}/telegram", s.withLearner(s.handleTelegramSettings))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})

	return s.logRequests(cors(mux))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
