package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sbhdesk/complaint-engine/internal/events"
)

// publishEvent stamps and publishes a post-commit event.
func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	dispatcher.Publish(ctx, event)
}
