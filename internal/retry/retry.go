package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config controls the retry loop. Rand and Sleep are injectable so tests can
// assert the exact backoff schedule.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration // delay before attempt n+1 is BaseDelay * 2^n
	MaxJitter   time.Duration // random extra delay in [0, MaxJitter)

	// Retryable reports whether an error is worth another attempt.
	// A nil Retryable retries everything.
	Retryable func(error) bool

	Rand  func() float64
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs fn up to MaxAttempts times with exponential backoff between
// attempts. A non-retryable error returns immediately.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	randFn := cfg.Rand
	if randFn == nil {
		randFn = rand.Float64
	}
	sleepFn := cfg.Sleep
	if sleepFn == nil {
		sleepFn = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.BaseDelay << uint(attempt)
		if cfg.MaxJitter > 0 {
			delay += time.Duration(randFn() * float64(cfg.MaxJitter))
		}
		if err := sleepFn(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
