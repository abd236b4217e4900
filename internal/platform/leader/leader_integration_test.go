//go:build integration

package leader_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carebridge/internal/platform/leader"
	"carebridge/pkg/testutil/containers"
)

type ElectorSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	logger *slog.Logger
}

func TestElectorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ElectorSuite))
}

func (s *ElectorSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ElectorSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *ElectorSuite) TestFirstClaimWins() {
	ctx := context.Background()
	first := leader.New(s.redis.Client, time.Minute, s.logger)
	second := leader.New(s.redis.Client, time.Minute, s.logger)

	s.True(first.IsLeader(ctx))
	s.False(second.IsLeader(ctx))
}

func (s *ElectorSuite) TestLeaderKeepsLeadershipAcrossChecks() {
	ctx := context.Background()
	elector := leader.New(s.redis.Client, time.Minute, s.logger)

	s.True(elector.IsLeader(ctx))
	s.True(elector.IsLeader(ctx))
	s.True(elector.IsLeader(ctx))
}

func (s *ElectorSuite) TestLeadershipMovesAfterLapse() {
	ctx := context.Background()
	first := leader.New(s.redis.Client, 100*time.Millisecond, s.logger)
	second := leader.New(s.redis.Client, time.Minute, s.logger)

	s.True(first.IsLeader(ctx))
	s.False(second.IsLeader(ctx))

	// The first instance stops checking; its lease expires.
	time.Sleep(200 * time.Millisecond)
	s.True(second.IsLeader(ctx))
}

func (s *ElectorSuite) TestChecksExtendTheLease() {
	ctx := context.Background()
	elector := leader.New(s.redis.Client, 300*time.Millisecond, s.logger)
	rival := leader.New(s.redis.Client, 300*time.Millisecond, s.logger)

	s.True(elector.IsLeader(ctx))
	for i := 0; i < 4; i++ {
		time.Sleep(150 * time.Millisecond)
		s.True(elector.IsLeader(ctx), "active leader never lapses")
		s.False(rival.IsLeader(ctx))
	}
}
