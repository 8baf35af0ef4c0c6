package store

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	entries map[string][]byte
	mu      sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]byte),
	}
}

func (s *MemoryStore) Get(_ context.Context, isbn string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, exists := s.entries[isbn]
	if !exists {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, isbn string, payload []byte) error {
	if err := validateKey(isbn); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[isbn] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
