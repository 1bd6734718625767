package events

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LogNotifier writes every event to a structured logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Debug().
		Str("event_id", event.ID.String()).
		Str("topic", event.Topic).
		Str("instance", event.Instance).
		RawJSON("payload", event.Payload).
		Msg("cart_event")
	return nil
}

// MetricsNotifier counts events per topic.
type MetricsNotifier struct {
	Counter *prometheus.CounterVec
}

// Notify implements Notifier.
func (n MetricsNotifier) Notify(_ context.Context, event Event) error {
	if n.Counter == nil {
		return nil
	}
	n.Counter.WithLabelValues(event.Topic).Inc()
	return nil
}

// RedisPublisher publishes events as JSON on a Redis pub/sub channel.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
	// Topics limits publishing to the listed topics; empty publishes all.
	Topics []string
}

// Notify implements Notifier.
func (p RedisPublisher) Notify(ctx context.Context, event Event) error {
	if p.Client == nil || p.Channel == "" {
		return nil
	}
	if len(p.Topics) > 0 && !slices.Contains(p.Topics, event.Topic) {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, p.Channel, data).Err()
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskTypeCartEvent is the asynq task type used for cart events.
const TaskTypeCartEvent = "cart:event"

// TaskNotifier hands events to background workers through asynq.
type TaskNotifier struct {
	Client TaskEnqueuer
	Queue  string
	// Topics limits enqueueing to the listed topics; empty enqueues the committed topics.
	Topics []string
}

// Notify implements Notifier.
func (n TaskNotifier) Notify(ctx context.Context, event Event) error {
	if n.Client == nil {
		return errors.New("events: task client not configured")
	}
	topics := n.Topics
	if len(topics) == 0 {
		topics = CommittedTopics()
	}
	if !slices.Contains(topics, event.Topic) {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	opts := []asynq.Option{asynq.TaskID(event.ID.String())}
	if n.Queue != "" {
		opts = append(opts, asynq.Queue(n.Queue))
	}
	_, err = n.Client.EnqueueContext(ctx, asynq.NewTask(TaskTypeCartEvent, data), opts...)
	return err
}
