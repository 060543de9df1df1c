package memory

import (
	"context"
	"sync"
)

// InMemoryStore keeps a bounded per-session message window in process.
type InMemoryStore struct {
	mu       sync.Mutex
	window   int
	sessions map[string][]Message
}

// NewInMemoryStore creates a store retaining at most window messages per session.
func NewInMemoryStore(window int) *InMemoryStore {
	if window <= 0 {
		window = 20
	}
	return &InMemoryStore{window: window, sessions: make(map[string][]Message)}
}

// Append adds messages to the session's buffer, trimming to the window.
func (s *InMemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.sessions[sessionID], msgs...)
	if len(buf) > s.window {
		buf = buf[len(buf)-s.window:]
	}
	s.sessions[sessionID] = buf
	return nil
}

// Recent returns up to limit of the most recent messages, oldest first.
func (s *InMemoryStore) Recent(_ context.Context, sessionID string, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := s.sessions[sessionID]
	if limit > 0 && len(buf) > limit {
		buf = buf[len(buf)-limit:]
	}
	out := make([]Message, len(buf))
	copy(out, buf)
	return out, nil
}
