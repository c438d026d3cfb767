package persistence

import (
	"context"
	"sync"
)

// MemoryStateStore is an in-memory StateStore for tests and
// single-process deployments without a database.
type MemoryStateStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{snapshots: make(map[string][]byte)}
}

// Save replaces the snapshot stored under name.
func (s *MemoryStateStore) Save(_ context.Context, name string, state []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(state))
	copy(cp, state)
	s.snapshots[name] = cp
	return nil
}

// Load returns the snapshot stored under name.
func (s *MemoryStateStore) Load(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[name]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(state))
	copy(cp, state)
	return cp, true, nil
}
