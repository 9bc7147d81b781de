package mcpserver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Acteus/Base-ML-Platform/dataset"
)

// sessionStore holds uploaded datasets keyed by session id. Tables are
// immutable, so concurrent sessions share nothing mutable; the lock only
// guards the map itself.
type sessionStore struct {
	mu     sync.RWMutex
	tables map[string]*dataset.Table
}

func newSessionStore() *sessionStore {
	return &sessionStore{tables: make(map[string]*dataset.Table)}
}

// Put stores a table and returns its new session id.
func (s *sessionStore) Put(t *dataset.Table) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.tables[id] = t
	s.mu.Unlock()
	return id
}

// Get returns the table of a session.
func (s *sessionStore) Get(id string) (*dataset.Table, bool) {
	s.mu.RLock()
	t, ok := s.tables[id]
	s.mu.RUnlock()
	return t, ok
}

// Len returns the number of live sessions.
func (s *sessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}
