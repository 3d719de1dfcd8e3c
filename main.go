package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/patterneng/internal/ai"
	"github.com/example/patterneng/internal/bot"
	"github.com/example/patterneng/internal/catalog"
	"github.com/example/patterneng/internal/config"
	"github.com/example/patterneng/internal/database"
	"github.com/example/patterneng/internal/logger"
	"github.com/example/patterneng/internal/progress"
	"github.com/example/patterneng/internal/quiz"
	"github.com/example/patterneng/internal/review"
	"github.com/example/patterneng/internal/scheduler"
	"github.com/example/patterneng/internal/server"
	"github.com/example/patterneng/internal/tts"
)

func main() {
	warmOnly := flag.Bool("warm-audio", false, "generate missing sentence audio and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, *warmOnly); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger, warmOnly bool) error {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	lg.Info("catalog loaded", zap.String("path", cfg.CatalogPath), zap.Int("days", len(cat.Days())))

	ttsClient, err := tts.NewGoogleClient(cfg.TTS)
	if err != nil {
		lg.Warn("text-to-speech disabled", zap.Error(err))
	}
	audio, err := tts.NewCache(cfg.TTS.AudioDir)
	if err != nil {
		lg.Warn("audio cache disabled", zap.Error(err))
	}

	if warmOnly {
		if ttsClient == nil || audio == nil {
			return errors.New("audio warm-up needs GOOGLE_TTS_API_KEY and a writable tts.audio_dir")
		}
		_, err := tts.NewWarmer(ttsClient, audio, lg).Warm(ctx, cat.Sentences())
		return err
	}

	db, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	learners := database.NewLearnerRepository(db)
	wrong := database.NewWrongAnswerRepository(db)

	prog := progress.NewService(cat,
		database.NewCompletedRepository(db),
		database.NewClearedDayRepository(db),
		cfg.Progress.LockDays, lg)
	quizzes := quiz.NewModule(cat, prog, wrong, database.NewQuizResultRepository(db), lg)
	reviews := review.NewService(wrong, database.NewBookmarkRepository(db), lg)

	svc := server.Services{
		Catalog:  cat,
		Progress: prog,
		Quiz:     quizzes,
		Review:   reviews,
		Learners: learners,
		Audio:    audio,
	}
	if ttsClient != nil {
		svc.TTS = ttsClient
	}
	if chat, err := ai.NewGemini(cfg.Chat); err != nil {
		lg.Warn("tutor chat disabled", zap.Error(err))
	} else {
		svc.Chat = chat
	}

	sched := scheduler.New(lg)
	if err := sched.AddSessionExpiry(quizzes, cfg.Quiz.SessionTTL); err != nil {
		return err
	}

	if cfg.Telegram.Token != "" {
		botCfg := bot.DefaultConfig()
		botCfg.StudyURL = cfg.Telegram.StudyURL
		digests := bot.NewDigester(cat, prog, reviews)

		b, err := bot.New(cfg.Telegram.Token, learners, digests, botCfg, lg)
		if err != nil {
			return err
		}
		if err := sched.AddDailyReminders(cfg.Telegram.ReminderHour, learners, digests, b); err != nil {
			return err
		}
		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	if cfg.TTS.WarmAudio && ttsClient != nil && audio != nil {
		warmer := tts.NewWarmer(ttsClient, audio, lg)
		if err := sched.AddAudioWarmup(cfg.TTS.WarmAt, warmer, cat.Sentences()); err != nil {
			return err
		}
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(cfg.HTTP, svc, lg)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		lg.Info("shutting down")
	}

	return srv.Shutdown(context.Background())
}
