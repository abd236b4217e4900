package leader

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaderKey = "jobs:leader"

// Elector decides whether this instance should run singleton background jobs.
// Leadership is a Redis key claimed with SET NX and a TTL; the current leader
// extends its claim on every check, so leadership only moves when the holder
// stops checking for longer than the TTL.
type Elector struct {
	client     *redis.Client
	instanceID string
	ttl        time.Duration
	logger     *slog.Logger
}

// New constructs an Elector with a random instance identity.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Elector {
	return &Elector{
		client:     client,
		instanceID: uuid.NewString(),
		ttl:        ttl,
		logger:     logger,
	}
}

// Single is the gate for deployments without Redis: one instance, always the
// leader.
type Single struct{}

func (Single) IsLeader(context.Context) bool { return true }

// IsLeader reports whether this instance currently holds leadership. Errors
// are logged and treated as "not leader" so a Redis outage never lets two
// instances both believe they lead.
func (e *Elector) IsLeader(ctx context.Context) bool {
	ok, err := e.client.SetNX(ctx, leaderKey, e.instanceID, e.ttl).Result()
	if err != nil {
		e.logger.ErrorContext(ctx, "leader election check failed", "error", err)
		return false
	}
	if ok {
		return true
	}

	holder, err := e.client.Get(ctx, leaderKey).Result()
	if err != nil {
		if err != redis.Nil {
			e.logger.ErrorContext(ctx, "leader election read failed", "error", err)
		}
		return false
	}
	if holder != e.instanceID {
		return false
	}

	// Extend our claim so it does not lapse mid-run.
	if err := e.client.Expire(ctx, leaderKey, e.ttl).Err(); err != nil {
		e.logger.ErrorContext(ctx, "leader lease extension failed", "error", err)
	}
	return true
}
