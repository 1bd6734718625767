package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskHandler replays cart events enqueued by TaskNotifier to downstream notifiers.
type TaskHandler struct {
	Notifiers []Notifier
	Logger    zerolog.Logger
}

// Register binds the handler to mux under TaskTypeCartEvent.
func (h TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeCartEvent, h.ProcessTask)
}

// ProcessTask implements asynq.Handler. Malformed payloads are not retried.
func (h TaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var event Event
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("decode cart event: %v: %w", err, asynq.SkipRetry)
	}
	if event.Topic == "" {
		return fmt.Errorf("cart event without topic: %w", asynq.SkipRetry)
	}

	var joined error
	for _, notifier := range h.Notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			joined = errors.Join(joined, err)
		}
	}
	if joined != nil {
		h.Logger.Warn().Err(joined).
			Str("event_id", event.ID.String()).
			Str("topic", event.Topic).
			Msg("cart event delivery failed")
		return joined
	}
	h.Logger.Debug().Str("event_id", event.ID.String()).Str("topic", event.Topic).Msg("cart event delivered")
	return nil
}
