package memory

import (
	"context"
	"sync"
)

// InMemoryStorage keeps the last saved state in process. Used by tests and
// when persistence is disabled.
type InMemoryStorage struct {
	mu    sync.RWMutex
	state ConversationState
	saves int
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

func (s *InMemoryStorage) Load(_ context.Context) (ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone(), nil
}

func (s *InMemoryStorage) Save(_ context.Context, state ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.clone()
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *InMemoryStorage) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *InMemoryStorage) Close() error { return nil }
