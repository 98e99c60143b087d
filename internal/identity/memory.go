package identity

import (
	"context"
	"sync"
)

// MemoryStore keeps values for the lifetime of the process
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// GetOrCreate returns the value under key, generating it when absent
func (s *MemoryStore) GetOrCreate(ctx context.Context, key string, gen func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.values[key]; ok {
		return value, nil
	}

	value, err := generate(gen)
	if err != nil {
		return "", err
	}
	s.values[key] = value
	return value, nil
}
