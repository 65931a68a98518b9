//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"realtyvest/internal/audit"
	"realtyvest/internal/platform/kafka"
	id "realtyvest/pkg/domain"
	"realtyvest/pkg/testutil/containers"
)

func TestKafkaSink_ProducesKeyedJSON(t *testing.T) {
	broker := containers.NewRedpandaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "verification.audit.test"
	producer, err := kafka.NewClient([]string{broker.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1))
	// Second call must tolerate the existing topic.
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, 1))

	userID := id.UserID(uuid.New())
	sink := audit.NewKafkaSink(producer, topic)
	require.NoError(t, sink.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    "submission",
		Status:    "pending",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, userID.String(), string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	require.Equal(t, userID, got.UserID)
	require.Equal(t, "submission", got.Action)
}
