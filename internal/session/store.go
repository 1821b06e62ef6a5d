package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/industrial-rag/backend/pkg/logger"
)

var ErrNotFound = errors.New("session not found")

// Exchange is one question/answer pair of a conversation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is a read-only snapshot handed to callers.
type Session struct {
	ID             string
	History        []Exchange
	WebSearchCount int
}

type state struct {
	history        []Exchange
	webSearchCount int
	lastActive     time.Time
}

type Config struct {
	MaxHistory     int
	MaxWebSearches int
	IdleTTL        time.Duration
}

// Store is the process-wide session registry. All mutation goes through one
// mutex, so the web-search budget cannot be overcharged by concurrent
// requests for the same session id.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*state

	maxHistory     int
	maxWebSearches int
	idleTTL        time.Duration
	cleanupTicker  *time.Ticker
	done           chan struct{}
}

func NewStore(cfg Config) *Store {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 10
	}
	if cfg.MaxWebSearches <= 0 {
		cfg.MaxWebSearches = 5
	}

	s := &Store{
		sessions:       make(map[string]*state),
		maxHistory:     cfg.MaxHistory,
		maxWebSearches: cfg.MaxWebSearches,
		idleTTL:        cfg.IdleTTL,
		done:           make(chan struct{}),
	}

	if cfg.IdleTTL > 0 {
		s.cleanupTicker = time.NewTicker(cfg.IdleTTL / 2)
		go s.cleanup()
	}

	return s
}

// GetOrCreate returns a snapshot of the session, creating it first if needed.
func (s *Store) GetOrCreate(sessionID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(sessionID)
	return s.snapshotLocked(sessionID, st)
}

// AppendExchange records one question/answer pair, trimming the history to
// the most recent MaxHistory entries.
func (s *Store) AppendExchange(sessionID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(sessionID)
	st.history = append(st.history, Exchange{Question: question, Answer: answer})
	if len(st.history) > s.maxHistory {
		st.history = st.history[len(st.history)-s.maxHistory:]
	}
	st.lastActive = time.Now()
}

// History returns a copy of the session's conversation history.
func (s *Store) History(sessionID string) ([]Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	history := make([]Exchange, len(st.history))
	copy(history, st.history)
	return history, nil
}

// Delete removes all state for the session id.
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)

	logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// TryChargeWebSearch reserves one web-search unit if the session is under
// budget. Check and increment happen under the same lock, so two concurrent
// callers can never both take the last unit.
func (s *Store) TryChargeWebSearch(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.getOrCreateLocked(sessionID)
	if st.webSearchCount >= s.maxWebSearches {
		return false
	}
	st.webSearchCount++
	return true
}

// RefundWebSearch returns a reserved unit after a failed web search.
func (s *Store) RefundWebSearch(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionID]; ok && st.webSearchCount > 0 {
		st.webSearchCount--
	}
}

// WebSearchesRemaining never goes below zero.
func (s *Store) WebSearchesRemaining(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[sessionID]
	if !ok {
		return s.maxWebSearches
	}

	remaining := s.maxWebSearches - st.webSearchCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetWebSearches restores the session's full web-search budget.
func (s *Store) ResetWebSearches(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.sessions[sessionID]; ok {
		st.webSearchCount = 0
		st.lastActive = time.Now()
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) Stop() {
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
		close(s.done)
	}
}

func (s *Store) getOrCreateLocked(sessionID string) *state {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &state{lastActive: time.Now()}
		s.sessions[sessionID] = st
		logger.Debug("session created", zap.String("session_id", sessionID))
	}
	st.lastActive = time.Now()
	return st
}

func (s *Store) snapshotLocked(sessionID string, st *state) Session {
	history := make([]Exchange, len(st.history))
	copy(history, st.history)
	return Session{
		ID:             sessionID,
		History:        history,
		WebSearchCount: st.webSearchCount,
	}
}

func (s *Store) cleanup() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanupTicker.C:
			s.mu.Lock()
			now := time.Now()
			for id, st := range s.sessions {
				if now.Sub(st.lastActive) > s.idleTTL {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
