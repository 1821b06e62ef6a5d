package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	lastErr := errors.New("always fails")

	err := Do(context.Background(), fastConfig(), func() error {
		attempts++
		return lastErr
	})

	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 3, attempts)
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	retryable := errors.New("transient")
	fatal := errors.New("fatal")

	cfg := fastConfig()
	cfg.RetryableErrors = []error{retryable}

	attempts := 0
	err := Do(context.Background(), cfg, func() error {
		attempts++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, fastConfig(), func() error {
		attempts++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0

	value, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, 2, attempts)
}
