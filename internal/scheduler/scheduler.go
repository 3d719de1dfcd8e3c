package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/patterneng/internal/bot"
	"github.com/example/patterneng/internal/tts"
	"github.com/example/patterneng/pkg/models"
)

// ExpireEvery is how often idle quiz sessions are dropped.
const ExpireEvery = 10 * time.Minute

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(chatID int64, digest *bot.Digest) error
}

type ReminderLearners interface {
	ListForReminders(ctx context.Context) ([]models.Learner, error)
}

type DigestBuilder interface {
	Digest(ctx context.Context, learnerID string) (*bot.Digest, error)
}

// SessionExpirer drops idle quiz sessions
type SessionExpirer interface {
	Expire(ttl time.Duration) int
}

// AudioWarmer pre-generates sentence audio
type AudioWarmer interface {
	Warm(ctx context.Context, sentences []string) (*tts.WarmResult, error)
}

// New creates a new scheduler instance
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// AddSessionExpiry drops quiz sessions idle longer than ttl every ExpireEvery
func (s *Scheduler) AddSessionExpiry(sessions SessionExpirer, ttl time.Duration) error {
	_, err := s.scheduler.Every(ExpireEvery).Do(func() {
		if n := sessions.Expire(ttl); n > 0 {
			s.logger.Info("expired quiz sessions", zap.Int("count", n))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule session expiry: %w", err)
	}
	return nil
}

// AddDailyReminders sends study reminders every day at hour (UTC)
func (s *Scheduler) AddDailyReminders(hour int, learners ReminderLearners, digests DigestBuilder, notifier Notifier) error {
	_, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", hour)).Do(func() {
		if _, err := SendReminders(s.ctx, learners, digests, notifier, s.logger); err != nil {
			s.logger.Error("daily reminders failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	return nil
}

// AddAudioWarmup pre-generates missing audio every day at the HH:MM time
func (s *Scheduler) AddAudioWarmup(at string, warmer AudioWarmer, sentences []string) error {
	_, err := s.scheduler.Every(1).Day().At(at).SingletonMode().Do(func() {
		if _, err := warmer.Warm(s.ctx, sentences); err != nil {
			s.logger.Error("audio warm-up failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule audio warm-up: %w", err)
	}
	return nil
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// SendReminders notifies every learner who has reminders enabled and
// returns how many reminders were sent.
func SendReminders(ctx context.Context, learners ReminderLearners, digests DigestBuilder, notifier Notifier, logger *zap.Logger) (int, error) {
	list, err := learners.ListForReminders(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, l := range list {
		digest, err := digests.Digest(ctx, l.ID)
		if err != nil {
			logger.Warn("failed to build digest", zap.String("learner", l.ID), zap.Error(err))
			continue
		}
		if err := notifier.SendReminder(l.TelegramChatID, digest); err != nil {
			logger.Warn("failed to send reminder", zap.String("learner", l.ID), zap.Error(err))
			continue
		}
		sent++
	}

	logger.Info("study reminders sent", zap.Int("sent", sent), zap.Int("learners", len(list)))
	return sent, nil
}
