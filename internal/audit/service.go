package audit

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks QueueStore,RecordStore,Publisher,FlagStore

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"carebridge/internal/audit/metrics"
	"carebridge/internal/audit/sanitize"
	"carebridge/pkg/requestcontext"
)

// QueueStore is the shared pending-record buffer. ClaimBatch must remove and
// return atomically so concurrent flushers never see the same payload.
type QueueStore interface {
	Push(ctx context.Context, payload []byte) (int64, error)
	Count(ctx context.Context) (int64, error)
	ClaimBatch(ctx context.Context, n int) ([][]byte, error)
	Requeue(ctx context.Context, payloads [][]byte) error
	ResetCount(ctx context.Context) error
}

// RecordStore is the durable audit store.
type RecordStore interface {
	BulkInsert(ctx context.Context, records []Record) error
}

// Publisher delivers envelopes to the message bus, fire-and-forget.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, envelope Envelope) error
}

// FlagStore answers whether auditing is enabled for an integration.
type FlagStore interface {
	AuditEnabled(ctx context.Context, integrationID string) (bool, error)
}

// Service decouples recording integration events from persisting them.
// Nothing here propagates an error to the business operation that produced
// the event: every internal failure is logged and swallowed.
type Service struct {
	queue     QueueStore
	store     RecordStore
	publisher Publisher
	flags     FlagStore
	logger    *slog.Logger
	threshold int64
	batchSize int
	source    string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithFlagStore(flags FlagStore) Option {
	return func(s *Service) {
		s.flags = flags
	}
}

// WithFlushThreshold overrides the pending count that triggers a flush.
func WithFlushThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threshold = int64(n)
		}
	}
}

// WithBatchSize overrides the bulk-insert batch size.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithSource sets the envelope source name for the dispatch path.
func WithSource(source string) Option {
	return func(s *Service) {
		s.source = source
	}
}

// New constructs a Service with production defaults (threshold 30, batches
// of 10).
func New(queue QueueStore, store RecordStore, opts ...Option) *Service {
	s := &Service{
		queue:     queue,
		store:     store,
		logger:    slog.Default(),
		threshold: 30,
		batchSize: 10,
		source:    "carebridge",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueueAudits appends a record to the shared queue and flushes once the
// pending count reaches the threshold. The flush runs synchronously on the
// call that crosses the threshold; under low traffic records wait in the
// queue until then (the janitor's interval flush drains stragglers).
func (s *Service) QueueAudits(ctx context.Context, record Record) {
	record = s.enrich(ctx, record)
	record.Data = sanitize.Sanitize(record.Data)

	payload, err := json.Marshal(record)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal audit record failed",
			"integration_id", record.IntegrationID, "error", err)
		return
	}

	count, err := s.queue.Push(ctx, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "queue audit record failed",
			"integration_id", record.IntegrationID, "error", err)
		return
	}
	metrics.RecordsQueued.Inc()

	if count < s.threshold {
		return
	}
	s.Flush(ctx)
}

// SendAuditEvent enriches a record from request context and publishes it to
// the message bus. No-ops when auditing is disabled for the integration or no
// publisher is configured.
func (s *Service) SendAuditEvent(ctx context.Context, record Record) {
	if s.flags != nil {
		enabled, err := s.flags.AuditEnabled(ctx, record.IntegrationID)
		if err != nil {
			s.logger.ErrorContext(ctx, "audit flag lookup failed",
				"integration_id", record.IntegrationID, "error", err)
			return
		}
		if !enabled {
			return
		}
	}
	if s.publisher == nil {
		return
	}

	record = s.enrich(ctx, record)
	record.Data = sanitize.Sanitize(record.Data)

	envelope := Envelope{
		Data:     record,
		DataType: record.DataType.String(),
		Source:   s.source,
		Type:     "integration_audit",
	}
	if err := s.publisher.Publish(ctx, record.IntegrationID, envelope); err != nil {
		s.logger.ErrorContext(ctx, "audit event publish failed",
			"integration_id", record.IntegrationID, "error", err)
		return
	}
	metrics.EventsPublished.Inc()
}

// enrich fills request-scoped metadata and the server timestamp. A fresh
// correlation id is generated when neither the record nor the context carries
// one.
func (s *Service) enrich(ctx context.Context, record Record) Record {
	if record.ConversationID == "" {
		record.ConversationID = requestcontext.ConversationID(ctx)
	}
	if record.SubjectID == "" {
		record.SubjectID = requestcontext.SubjectID(ctx)
	}
	if record.CorrelationID == "" {
		record.CorrelationID = requestcontext.CorrelationID(ctx)
	}
	if record.CorrelationID == "" {
		record.CorrelationID = uuid.NewString()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = requestcontext.Now(ctx).UnixMilli()
	}
	return record
}

// Flush drains ceil(count/batchSize) batches from the queue into the durable
// store, then resets the pending count. An empty claim ends the loop early:
// a concurrent flusher already drained the queue. A batch whose bulk insert
// fails is requeued at the tail for a later pass; if the requeue also fails
// the batch is dropped and counted.
func (s *Service) Flush(ctx context.Context) {
	start := time.Now()
	defer func() {
		metrics.FlushDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	count, err := s.queue.Count(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "read pending audit count failed", "error", err)
		metrics.FlushErrors.Inc()
		return
	}
	if count == 0 {
		return
	}

	batchSize := int64(s.batchSize)
	batches := (count + batchSize - 1) / batchSize
	for i := int64(0); i < batches; i++ {
		if !s.flushBatch(ctx) {
			break
		}
	}

	if err := s.queue.ResetCount(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reset pending audit count failed", "error", err)
		metrics.FlushErrors.Inc()
	}
}

// Drain flushes batches until the queue is empty, regardless of the pending
// count. The janitor uses it to clear stragglers below the threshold and any
// records the counter lost track of.
func (s *Service) Drain(ctx context.Context) {
	for s.flushBatch(ctx) {
	}
	if err := s.queue.ResetCount(ctx); err != nil {
		s.logger.ErrorContext(ctx, "reset pending audit count failed", "error", err)
		metrics.FlushErrors.Inc()
	}
}

// flushBatch claims and persists one batch. Returns false when the loop
// should stop: the queue is drained or claiming failed.
func (s *Service) flushBatch(ctx context.Context) bool {
	payloads, err := s.queue.ClaimBatch(ctx, s.batchSize)
	if err != nil {
		s.logger.ErrorContext(ctx, "claim audit batch failed", "error", err)
		metrics.FlushErrors.Inc()
		return false
	}
	if len(payloads) == 0 {
		return false
	}

	records := make([]Record, 0, len(payloads))
	for _, payload := range payloads {
		var record Record
		if err := json.Unmarshal(payload, &record); err != nil {
			s.logger.ErrorContext(ctx, "parse queued audit record failed", "error", err)
			metrics.FlushErrors.Inc()
			continue
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return true
	}

	if err := s.store.BulkInsert(ctx, records); err != nil {
		s.logger.ErrorContext(ctx, "bulk insert audit batch failed",
			"batch_size", len(records), "error", err)
		metrics.FlushErrors.Inc()
		if rqErr := s.queue.Requeue(ctx, payloads); rqErr != nil {
			s.logger.ErrorContext(ctx, "requeue audit batch failed",
				"batch_size", len(payloads), "error", rqErr)
			metrics.RecordsDropped.Add(float64(len(payloads)))
		}
		// The store is likely down; stop the pass and let a later flush
		// retry the requeued batch.
		return false
	}
	metrics.BatchesFlushed.Inc()
	return true
}
