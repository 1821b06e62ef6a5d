package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(Config{MaxHistory: 10, MaxWebSearches: 5})
}

func TestGetOrCreateStartsEmpty(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	sess := s.GetOrCreate("s1")

	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.History)
	assert.Equal(t, 0, sess.WebSearchCount)
	assert.Equal(t, 1, s.Len())
}

func TestAppendExchangeTrimsHistory(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	for i := 0; i < 13; i++ {
		s.AppendExchange("s1", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history, err := s.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 10)

	assert.Equal(t, "q3", history[0].Question)
	assert.Equal(t, "q12", history[9].Question)
	assert.Equal(t, "a12", history[9].Answer)
}

func TestHistoryUnknownSession(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	_, err := s.History("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	s.AppendExchange("s1", "q", "a")

	history, err := s.History("s1")
	require.NoError(t, err)
	history[0].Answer = "mutated"

	again, err := s.History("s1")
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Answer)
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	s.GetOrCreate("s1")
	require.NoError(t, s.Delete("s1"))
	assert.Equal(t, 0, s.Len())

	assert.ErrorIs(t, s.Delete("s1"), ErrNotFound)
}

func TestWebSearchBudget(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	assert.Equal(t, 5, s.WebSearchesRemaining("s1"))

	for i := 0; i < 5; i++ {
		assert.True(t, s.TryChargeWebSearch("s1"))
	}
	assert.False(t, s.TryChargeWebSearch("s1"))
	assert.Equal(t, 0, s.WebSearchesRemaining("s1"))
}

func TestRefundWebSearch(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	require.True(t, s.TryChargeWebSearch("s1"))
	assert.Equal(t, 4, s.WebSearchesRemaining("s1"))

	s.RefundWebSearch("s1")
	assert.Equal(t, 5, s.WebSearchesRemaining("s1"))

	// A refund never pushes the count below zero.
	s.RefundWebSearch("s1")
	assert.Equal(t, 5, s.WebSearchesRemaining("s1"))
}

func TestResetWebSearches(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	for i := 0; i < 5; i++ {
		require.True(t, s.TryChargeWebSearch("s1"))
	}
	require.False(t, s.TryChargeWebSearch("s1"))

	s.ResetWebSearches("s1")

	assert.Equal(t, 5, s.WebSearchesRemaining("s1"))
	assert.True(t, s.TryChargeWebSearch("s1"))
}

func TestConcurrentChargesNeverOvershoot(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryChargeWebSearch("s1") {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, granted)
	assert.Equal(t, 0, s.WebSearchesRemaining("s1"))
}

func TestSessionsAreIndependent(t *testing.T) {
	s := newTestStore()
	defer s.Stop()

	require.True(t, s.TryChargeWebSearch("s1"))
	s.AppendExchange("s1", "q", "a")

	assert.Equal(t, 5, s.WebSearchesRemaining("s2"))
	_, err := s.History("s2")
	assert.ErrorIs(t, err, ErrNotFound)
}
