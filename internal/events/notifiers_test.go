package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/events"
)

func sampleEvent(topic string) events.Event {
	return events.Event{
		ID:         uuid.New(),
		Topic:      topic,
		Instance:   "default",
		Payload:    json.RawMessage(`{"rowId":"abc"}`),
		OccurredAt: time.Now().UTC(),
	}
}

func TestLogNotifierWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	n := events.LogNotifier{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}
	require.NoError(t, n.Notify(context.Background(), sampleEvent(events.TopicCartAdded)))
	require.Contains(t, buf.String(), `"topic":"cart.added"`)
	require.Contains(t, buf.String(), `"payload":{"rowId":"abc"}`)
}

func TestMetricsNotifierCountsTopics(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "cart_events_total", Help: "test"}, []string{"topic"})
	n := events.MetricsNotifier{Counter: counter}
	ctx := context.Background()
	require.NoError(t, n.Notify(ctx, sampleEvent(events.TopicCartAdded)))
	require.NoError(t, n.Notify(ctx, sampleEvent(events.TopicCartAdded)))
	require.NoError(t, n.Notify(ctx, sampleEvent(events.TopicCartRemoved)))
	require.Equal(t, 2.0, testutil.ToFloat64(counter.WithLabelValues(events.TopicCartAdded)))
	require.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues(events.TopicCartRemoved)))
}

func TestRedisPublisherPublishesFilteredTopics(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "cart-events")
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	pub := events.RedisPublisher{Client: client, Channel: "cart-events", Topics: events.CommittedTopics()}
	require.NoError(t, pub.Notify(ctx, sampleEvent(events.TopicCartAdding)))
	require.NoError(t, pub.Notify(ctx, sampleEvent(events.TopicCartAdded)))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var decoded events.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
	require.Equal(t, events.TopicCartAdded, decoded.Topic)
}

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestTaskNotifierEnqueuesCommittedTopics(t *testing.T) {
	client := &stubEnqueuer{}
	n := events.TaskNotifier{Client: client, Queue: "cart"}
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, sampleEvent(events.TopicCartUpdating)))
	require.NoError(t, n.Notify(ctx, sampleEvent(events.TopicCartUpdated)))
	require.Len(t, client.tasks, 1)
	require.Equal(t, events.TaskTypeCartEvent, client.tasks[0].Type())

	var decoded events.Event
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &decoded))
	require.Equal(t, events.TopicCartUpdated, decoded.Topic)
}

func TestTaskNotifierRequiresClient(t *testing.T) {
	require.Error(t, events.TaskNotifier{}.Notify(context.Background(), sampleEvent(events.TopicCartAdded)))
}
