package session

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[uint][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[uint][]byte)}
}

func (s *MemoryStore) Load(_ context.Context, userID uint) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[userID]
	return data, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, userID uint, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[userID] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, userID)
	return nil
}
