package cache

import (
	"context"
	"sync"
	"time"

	"carebridge/pkg/platform/sentinel"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// InMemoryStore is a process-local cache store for unit tests and local runs
// without Redis.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]entry), now: time.Now}
}

// SetClock injects a time source so tests can step past TTLs.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return e.value, nil
}

func (s *InMemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}
