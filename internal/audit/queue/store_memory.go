package queue

import (
	"context"
	"sync"
)

// InMemoryStore is a process-local queue store for unit tests and single
// instance deployments without Redis.
type InMemoryStore struct {
	mu      sync.Mutex
	pending [][]byte
	count   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Push(_ context.Context, payload []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.pending = append(s.pending, buf)
	s.count++
	return s.count, nil
}

func (s *InMemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

func (s *InMemoryStore) ClaimBatch(_ context.Context, n int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.pending) {
		n = len(s.pending)
	}
	if n <= 0 {
		return nil, nil
	}
	claimed := s.pending[:n]
	s.pending = append([][]byte(nil), s.pending[n:]...)
	s.count -= int64(n)
	if s.count < 0 {
		s.count = 0
	}
	return claimed, nil
}

func (s *InMemoryStore) Requeue(_ context.Context, payloads [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, payloads...)
	s.count += int64(len(payloads))
	return nil
}

func (s *InMemoryStore) ResetCount(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = 0
	return nil
}

// Len reports the actual queue length, for test assertions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
