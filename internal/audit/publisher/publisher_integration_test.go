//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"carebridge/internal/audit"
	"carebridge/internal/audit/publisher"
	"carebridge/pkg/testutil/containers"
)

const testTopic = "integration-audit-events"

func TestKafkaPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	broker := containers.NewRedpandaContainer(t).Broker
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pub, err := publisher.NewKafka([]string{broker}, testTopic, logger)
	require.NoError(t, err)
	require.NotNil(t, pub)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	envelope := audit.Envelope{
		Data: audit.Record{
			IntegrationID: "amigo",
			CorrelationID: "corr-1",
			DataType:      audit.DataTypeExternalRequest,
			Data:          map[string]any{"unit": 12},
			CreatedAt:     time.Now().UnixMilli(),
		},
		DataType: "external_request",
		Source:   "carebridge",
		Type:     "integration_audit",
	}
	require.NoError(t, pub.Publish(ctx, "amigo", envelope))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(testTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "amigo", string(records[0].Key))

	var got audit.Envelope
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, "integration_audit", got.Type)
	require.Equal(t, "carebridge", got.Source)
	require.Equal(t, "external_request", got.DataType)
}

func TestKafkaDisabledWithoutBrokers(t *testing.T) {
	pub, err := publisher.NewKafka(nil, testTopic, slog.Default())
	require.NoError(t, err)
	require.Nil(t, pub)
}
