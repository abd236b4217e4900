package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"carebridge/internal/audit"
)

// Kafka publishes audit envelopes to the event bus. Publishing is
// fire-and-forget from the caller's perspective: delivery errors surface in
// the produce callback and are logged, never returned to the business path.
type Kafka struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafka connects a producer. Returns nil if no brokers are configured
// (event dispatch disabled).
func NewKafka(brokers []string, topic string, logger *slog.Logger) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &Kafka{client: client, topic: topic, logger: logger}, nil
}

// Publish serializes the envelope and hands it to the producer. The routing
// key groups records of one integration into one partition so a consumer sees
// them in order.
func (k *Kafka) Publish(ctx context.Context, routingKey string, envelope audit.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal audit envelope: %w", err)
	}
	record := &kgo.Record{Key: []byte(routingKey), Value: payload}
	k.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			k.logger.Error("audit event publish failed",
				"topic", k.topic, "routing_key", routingKey, "error", err)
		}
	})
	return nil
}

// Close flushes buffered records and shuts the producer down.
func (k *Kafka) Close() {
	k.client.Close()
}
