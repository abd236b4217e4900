package janitor

import (
	"context"
	"log/slog"
	"time"

	"carebridge/internal/audit/metrics"
)

// Flusher drains pending audit records below the flush threshold.
type Flusher interface {
	Drain(ctx context.Context)
}

// PurgeStore bulk-deletes records older than the retention cutoff.
type PurgeStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Gate decides whether this instance should run singleton jobs.
type Gate interface {
	IsLeader(ctx context.Context) bool
}

// Janitor runs the audit background jobs: an interval flush for records that
// never cross the count threshold, and the daily retention purge. Both run
// only on the leader. Errors are logged and the loop continues; the janitor
// stops only when its context is cancelled.
type Janitor struct {
	flusher       Flusher
	store         PurgeStore
	gate          Gate
	logger        *slog.Logger
	retention     time.Duration
	flushInterval time.Duration
	purgeInterval time.Duration
	now           func() time.Time
}

type Option func(j *Janitor)

func WithLogger(logger *slog.Logger) Option {
	return func(j *Janitor) {
		j.logger = logger
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(j *Janitor) {
		j.now = now
	}
}

// New constructs a Janitor. Retention and intervals come from configuration
// (production defaults: 2 months retention, one-minute flush, daily purge).
func New(flusher Flusher, store PurgeStore, gate Gate, retention, flushInterval, purgeInterval time.Duration, opts ...Option) *Janitor {
	j := &Janitor{
		flusher:       flusher,
		store:         store,
		gate:          gate,
		logger:        slog.Default(),
		retention:     retention,
		flushInterval: flushInterval,
		purgeInterval: purgeInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	flushTicker := time.NewTicker(j.flushInterval)
	defer flushTicker.Stop()
	purgeTicker := time.NewTicker(j.purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-flushTicker.C:
			if j.gate.IsLeader(ctx) {
				j.flusher.Drain(ctx)
			}
		case <-purgeTicker.C:
			if j.gate.IsLeader(ctx) {
				j.Purge(ctx)
			}
		}
	}
}

// Purge deletes all records past the retention window. Failures are logged,
// never returned.
func (j *Janitor) Purge(ctx context.Context) {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.ErrorContext(ctx, "audit retention purge failed",
			"cutoff", cutoff, "error", err)
		return
	}
	metrics.RecordsPurged.Add(float64(deleted))
	if deleted > 0 {
		j.logger.InfoContext(ctx, "audit retention purge completed",
			"deleted", deleted, "cutoff", cutoff)
	}
}
