package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartsClosed(t *testing.T) {
	cb := New("test", Config{})

	assert.Equal(t, StateClosed, cb.State())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, Timeout: time.Minute})
	fail := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return fail })
		assert.ErrorIs(t, err, fail)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", Config{FailureThreshold: 3, Timeout: time.Minute})
	fail := errors.New("boom")

	_ = cb.Execute(context.Background(), func() error { return fail })
	_ = cb.Execute(context.Background(), func() error { return fail })
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	_ = cb.Execute(context.Background(), func() error { return fail })

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		MaxRequests:      2,
		Timeout:          10 * time.Millisecond,
	})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New("test", Config{
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })

	assert.Equal(t, StateOpen, cb.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string

	cb := New("test", Config{
		FailureThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })

	assert.Equal(t, []string{"closed->open"}, transitions)
}
