package service

import (
	"context"

	"github.com/Skotchmaster/todo_list/internal/events"
	"github.com/Skotchmaster/todo_list/pkg/logging"
)

// publish emits ev after the mutation committed. Delivery failures are
// logged and swallowed.
func publish(ctx context.Context, pub events.Publisher, topic string, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", topic, "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}
