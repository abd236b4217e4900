package store

import (
	"context"
	"time"

	"carebridge/internal/audit"
)

// Store persists audit records. Records are write-once; the only delete is
// the bulk retention purge.
type Store interface {
	BulkInsert(ctx context.Context, records []audit.Record) error
	// DeleteOlderThan removes every record created before cutoff and returns
	// the number deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
