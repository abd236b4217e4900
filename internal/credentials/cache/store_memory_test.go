package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carebridge/internal/credentials/cache"
	"carebridge/pkg/platform/sentinel"
)

type MemoryCacheSuite struct {
	suite.Suite
	ctx   context.Context
	store *cache.InMemoryStore
	now   time.Time
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = cache.NewInMemoryStore()
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.store.SetClock(func() time.Time { return s.now })
}

func (s *MemoryCacheSuite) TestMissingKey() {
	_, err := s.store.Get(s.ctx, "creds:integration:amigo")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryCacheSuite) TestSetThenGet() {
	err := s.store.Set(s.ctx, "creds:integration:amigo", `{"apiUrl":"x"}`, 300*time.Second)
	s.Require().NoError(err)

	value, err := s.store.Get(s.ctx, "creds:integration:amigo")
	s.Require().NoError(err)
	s.Equal(`{"apiUrl":"x"}`, value)
}

func (s *MemoryCacheSuite) TestEntryExpiresAfterTTL() {
	err := s.store.Set(s.ctx, "creds:integration:amigo", "v", 300*time.Second)
	s.Require().NoError(err)

	s.now = s.now.Add(300 * time.Second)
	_, err = s.store.Get(s.ctx, "creds:integration:amigo")
	s.NoError(err, "exactly at the TTL boundary the entry still lives")

	s.now = s.now.Add(time.Millisecond)
	_, err = s.store.Get(s.ctx, "creds:integration:amigo")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryCacheSuite) TestSetOverwritesAndRefreshesTTL() {
	s.Require().NoError(s.store.Set(s.ctx, "k", "old", 10*time.Second))

	s.now = s.now.Add(8 * time.Second)
	s.Require().NoError(s.store.Set(s.ctx, "k", "new", 10*time.Second))

	s.now = s.now.Add(5 * time.Second)
	value, err := s.store.Get(s.ctx, "k")
	s.Require().NoError(err)
	s.Equal("new", value)
}
