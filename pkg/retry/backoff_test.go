package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func fastConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1.0,
	}
}

func TestWithBackoffSucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), zaptest.NewLogger(t), "flaky", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), zaptest.NewLogger(t), "broken", func() error {
		attempts++
		return errors.New("still failing")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithBackoffHonorsPredicate(t *testing.T) {
	transient := errors.New("deadlock detected")
	fatal := errors.New("syntax error")

	cfg := fastConfig()
	cfg.RetryIf = func(err error) bool { return errors.Is(err, transient) }

	attempts := 0
	err := WithBackoff(context.Background(), cfg, zaptest.NewLogger(t), "guarded", func() error {
		attempts++
		if attempts == 1 {
			return transient
		}
		return fatal
	})

	// The transient error earned a second attempt, the fatal one did not.
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 2, attempts)
}

func TestWithBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, fastConfig(), zaptest.NewLogger(t), "cancelled", func() error {
		return errors.New("never succeeds")
	})
	assert.ErrorIs(t, err, context.Canceled)
}
