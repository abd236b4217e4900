package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis keys for the shared pending queue
	listKey  = "audit:pending"
	countKey = "audit:pending:count"
)

// claimScript reads up to ARGV[1] payloads from the head of the list, trims
// them, and decrements the counter by the number actually removed, all in one
// server-side step. The read-then-trim sequence used to be two round trips,
// which let concurrent flushers double-read a batch; the script closes that
// race so every payload lands in exactly one batch.
var claimScript = redis.NewScript(`
local items = redis.call('LRANGE', KEYS[1], 0, tonumber(ARGV[1]) - 1)
local n = #items
if n > 0 then
	redis.call('LTRIM', KEYS[1], n, -1)
	local count = redis.call('DECRBY', KEYS[2], n)
	if count < 0 then
		redis.call('SET', KEYS[2], 0)
	end
end
return items
`)

// RedisStore is the production queue store: a Redis list holds serialized
// records in FIFO order and a counter key tracks the pending total.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed queue store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Push(ctx context.Context, payload []byte) (int64, error) {
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, listKey, payload)
	incr := pipe.Incr(ctx, countKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("push pending audit: %w", err)
	}
	return incr.Val(), nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	count, err := s.client.Get(ctx, countKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pending count: %w", err)
	}
	return count, nil
}

func (s *RedisStore) ClaimBatch(ctx context.Context, n int) ([][]byte, error) {
	raw, err := claimScript.Run(ctx, s.client, []string{listKey, countKey}, n).Result()
	if err != nil {
		return nil, fmt.Errorf("claim audit batch: %w", err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("claim audit batch: unexpected reply %T", raw)
	}
	payloads := make([][]byte, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("claim audit batch: unexpected item %T", item)
		}
		payloads = append(payloads, []byte(str))
	}
	return payloads, nil
}

func (s *RedisStore) Requeue(ctx context.Context, payloads [][]byte) error {
	if len(payloads) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for _, p := range payloads {
		pipe.RPush(ctx, listKey, p)
	}
	pipe.IncrBy(ctx, countKey, int64(len(payloads)))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("requeue audit batch: %w", err)
	}
	return nil
}

func (s *RedisStore) ResetCount(ctx context.Context) error {
	if err := s.client.Set(ctx, countKey, 0, 0).Err(); err != nil {
		return fmt.Errorf("reset pending count: %w", err)
	}
	return nil
}
