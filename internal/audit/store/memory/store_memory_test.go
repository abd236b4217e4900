package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carebridge/internal/audit"
	"carebridge/internal/audit/store/memory"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewInMemoryStore()
}

func record(createdAt time.Time) audit.Record {
	return audit.Record{
		IntegrationID: "amigo",
		CorrelationID: "corr-1",
		DataType:      audit.DataTypeInternalRequest,
		Data:          map[string]any{"path": "/schedule"},
		CreatedAt:     createdAt.UnixMilli(),
	}
}

func (s *MemoryStoreSuite) TestBulkInsertAppends() {
	err := s.store.BulkInsert(s.ctx, []audit.Record{record(time.Now()), record(time.Now())})
	s.Require().NoError(err)
	s.Len(s.store.Records(), 2)
	s.Equal([]int{2}, s.store.InsertSizes())
}

func (s *MemoryStoreSuite) TestDeleteOlderThanBoundary() {
	cutoff := time.Now()
	err := s.store.BulkInsert(s.ctx, []audit.Record{
		record(cutoff.Add(-time.Millisecond)),
		record(cutoff),
		record(cutoff.Add(24 * time.Hour)),
	})
	s.Require().NoError(err)

	deleted, err := s.store.DeleteOlderThan(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted, "only records strictly before the cutoff go")
	s.Len(s.store.Records(), 2)
}

func (s *MemoryStoreSuite) TestDeleteOlderThanEmptyStore() {
	deleted, err := s.store.DeleteOlderThan(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Zero(deleted)
}
