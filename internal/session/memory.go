package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/justestif/smart-mood-player/internal/intent"
)

type memorySession struct {
	context intent.Context
	turns   []Turn
	touched time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	limit    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		limit:    HistoryLimit,
	}
}

// Context returns the session's context tag; unknown sessions have none.
func (s *MemoryStore) Context(_ context.Context, id string) (intent.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[id]; ok {
		return sess.context, nil
	}
	return intent.ContextNone, nil
}

// SetContext stores the session's context tag.
func (s *MemoryStore) SetContext(_ context.Context, id string, c intent.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	sess.context = c
	sess.touched = time.Now()
	return nil
}

// AppendTurn records a turn, dropping the oldest beyond the history limit.
func (s *MemoryStore) AppendTurn(_ context.Context, id string, t Turn) error {
	if t.At.IsZero() {
		t.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.get(id)
	sess.turns = append(sess.turns, t)
	if over := len(sess.turns) - s.limit; over > 0 {
		sess.turns = slices.Delete(sess.turns, 0, over)
	}
	sess.touched = t.At
	return nil
}

// History returns up to n of the latest turns, oldest first.
func (s *MemoryStore) History(_ context.Context, id string, n int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || n <= 0 {
		return nil, nil
	}
	start := max(0, len(sess.turns)-n)
	return slices.Clone(sess.turns[start:]), nil
}

// Reset removes the session.
func (s *MemoryStore) Reset(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Prune removes sessions idle for longer than ttl and returns how many
// were removed.
func (s *MemoryStore) Prune(_ context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for id, sess := range s.sessions {
		if sess.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// get returns the session, creating it. Callers must hold the write lock.
func (s *MemoryStore) get(id string) *memorySession {
	sess, ok := s.sessions[id]
	if !ok {
		sess = &memorySession{touched: time.Now()}
		s.sessions[id] = sess
	}
	return sess
}
