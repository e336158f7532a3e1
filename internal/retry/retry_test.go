package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{MaxAttempts: 3}, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_BackoffSchedule(t *testing.T) {
	var delays []time.Duration
	cfg := Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxJitter:   500 * time.Millisecond,
		Rand:        func() float64 { return 0 },
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	// 2^1 and 2^2 seconds, zero jitter injected.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}

func TestDo_JitterAddsUpToHalfSecond(t *testing.T) {
	var delays []time.Duration
	cfg := Config{
		MaxAttempts: 2,
		BaseDelay:   time.Second,
		MaxJitter:   500 * time.Millisecond,
		Rand:        func() float64 { return 0.5 },
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	_ = Do(context.Background(), cfg, func() error { return errors.New("transient") })

	require.Len(t, delays, 1)
	assert.Equal(t, 2*time.Second+250*time.Millisecond, delays[0])
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	permanent := errors.New("malformed feed")
	calls := 0
	cfg := Config{
		MaxAttempts: 3,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
		Sleep: func(_ context.Context, _ time.Duration) error {
			t.Fatal("should not sleep for a non-retryable error")
			return nil
		},
	}

	err := Do(context.Background(), cfg, func() error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{
		MaxAttempts: 3,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	err := Do(ctx, cfg, func() error { return errors.New("transient") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_WrapsLastError(t *testing.T) {
	last := errors.New("still failing")
	cfg := Config{
		MaxAttempts: 2,
		Sleep:       func(_ context.Context, _ time.Duration) error { return nil },
	}

	err := Do(context.Background(), cfg, func() error { return last })
	require.Error(t, err)
	assert.ErrorIs(t, err, last)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
