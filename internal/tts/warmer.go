package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) (string, error)
}

// WarmResult counts what a warm-up run did.
type WarmResult struct {
	Generated int
	Skipped   int
	Failed    int
}

// Warmer pre-generates audio for catalog sentences into the cache.
type Warmer struct {
	synth       Synthesizer
	cache       *Cache
	logger      *zap.Logger
	Pause       time.Duration // between requests
	Backoff     time.Duration // multiplied by the attempt number on rate limits
	MaxAttempts int
}

func NewWarmer(synth Synthesizer, cache *Cache, logger *zap.Logger) *Warmer {
	return &Warmer{
		synth:       synth,
		cache:       cache,
		logger:      logger,
		Pause:       2 * time.Second,
		Backoff:     15 * time.Second,
		MaxAttempts: 3,
	}
}

// Warm generates audio for every sentence not yet cached and rewrites the
// mapping file.
func (w *Warmer) Warm(ctx context.Context, sentences []string) (*WarmResult, error) {
	res := &WarmResult{}

	for i, text := range sentences {
		if w.cache.Has(text) {
			res.Skipped++
			continue
		}

		if err := w.generate(ctx, text); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			w.logger.Warn("audio generation failed", zap.String("text", text), zap.Error(err))
		} else {
			res.Generated++
		}

		if i < len(sentences)-1 {
			if err := sleep(ctx, w.Pause); err != nil {
				return res, err
			}
		}
	}

	if err := w.cache.WriteMapping(sentences); err != nil {
		return res, fmt.Errorf("write audio mapping: %w", err)
	}

	w.logger.Info("audio warm-up finished",
		zap.Int("generated", res.Generated),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (w *Warmer) generate(ctx context.Context, text string) error {
	for attempt := 1; attempt <= w.MaxAttempts; attempt++ {
		audio, err := w.synth.Synthesize(ctx, text, "en")
		if err == nil {
			data, err := base64.StdEncoding.DecodeString(audio)
			if err != nil {
				return fmt.Errorf("decode audio: %w", err)
			}
			return w.cache.Put(text, data)
		}
		if !IsRateLimited(err) {
			return err
		}

		wait := w.Backoff * time.Duration(attempt)
		w.logger.Info("rate limited, retrying",
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", w.MaxAttempts),
		)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("gave up after %d attempts", w.MaxAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
