package queue

import "context"

// Store is the shared buffer of pending, not-yet-persisted audit records plus
// the separately tracked pending count. Implementations are shared across
// every process instance, so ClaimBatch must be atomic: each pushed payload is
// handed to exactly one claimer.
type Store interface {
	// Push appends a serialized record at the tail and increments the pending
	// count, returning the count after the push.
	Push(ctx context.Context, payload []byte) (int64, error)
	// Count returns the pending count (0 if absent).
	Count(ctx context.Context) (int64, error)
	// ClaimBatch atomically removes and returns up to n payloads from the
	// head, decrementing the pending count by the number returned. An empty
	// result means the queue was already drained by a concurrent claimer.
	ClaimBatch(ctx context.Context, n int) ([][]byte, error)
	// Requeue appends payloads back at the tail and restores their count.
	// Used when a claimed batch fails to persist.
	Requeue(ctx context.Context, payloads [][]byte) error
	// ResetCount zeroes the pending count after a flush pass.
	ResetCount(ctx context.Context) error
}
