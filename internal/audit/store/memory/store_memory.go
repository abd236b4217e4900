package memory

import (
	"context"
	"sync"
	"time"

	"carebridge/internal/audit"
)

// InMemoryStore keeps records in a slice for unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
	// inserts tracks each BulkInsert call's size, for batch assertions.
	inserts []int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) BulkInsert(_ context.Context, records []audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	s.inserts = append(s.inserts, len(records))
	return nil
}

func (s *InMemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threshold := cutoff.UnixMilli()
	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if record.CreatedAt < threshold {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return deleted, nil
}

// Records returns a copy of everything persisted so far.
func (s *InMemoryStore) Records() []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Record{}, s.records...)
}

// InsertSizes returns the size of each bulk insert in call order.
func (s *InMemoryStore) InsertSizes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int{}, s.inserts...)
}
