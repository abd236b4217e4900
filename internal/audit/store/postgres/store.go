package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"carebridge/internal/audit"
)

// Store persists audit records in the audit_records table.
//
// Schema:
//
//	CREATE TABLE audit_records (
//	    id              BIGSERIAL PRIMARY KEY,
//	    integration_id  TEXT NOT NULL,
//	    conversation_id TEXT,
//	    subject_id      TEXT,
//	    correlation_id  TEXT NOT NULL,
//	    data_type       SMALLINT NOT NULL,
//	    identifier      TEXT,
//	    data            JSONB NOT NULL,
//	    created_at      BIGINT NOT NULL
//	);
//	CREATE INDEX audit_records_created_at_idx ON audit_records (created_at);
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// BulkInsert writes a batch of records in a single COPY inside one
// transaction. The batch either lands whole or not at all, so a failed batch
// can be requeued without partial duplicates.
func (s *Store) BulkInsert(ctx context.Context, records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("audit_records",
		"integration_id", "conversation_id", "subject_id", "correlation_id",
		"data_type", "identifier", "data", "created_at",
	))
	if err != nil {
		return fmt.Errorf("prepare bulk insert: %w", err)
	}

	for _, record := range records {
		data, err := json.Marshal(record.Data)
		if err != nil {
			return fmt.Errorf("marshal audit data: %w", err)
		}
		_, err = stmt.ExecContext(ctx,
			record.IntegrationID,
			nullable(record.ConversationID),
			nullable(record.SubjectID),
			record.CorrelationID,
			int(record.DataType),
			nullable(record.Identifier),
			string(data),
			record.CreatedAt,
		)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("buffer audit record: %w", err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush bulk insert: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("close bulk insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

// DeleteOlderThan bulk-deletes records created before cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_records WHERE created_at < $1`,
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired audit records: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted audit records: %w", err)
	}
	return deleted, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
