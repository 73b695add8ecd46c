package service

import (
	"context"

	"github.com/hyuniciel/1208-sns-proj/pkg/log"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
)

// publish emits a domain event. Failures are logged and never returned:
// the write that triggered the event has already committed.
func publish(ctx context.Context, p pubsub.Publisher, eventType, key, actorID string, payload interface{}) {
	if p == nil {
		return
	}
	l := log.Ctx(ctx)

	event, err := pubsub.NewEvent(eventType, key, actorID, payload)
	if err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		l.Warn().Err(err).Str("event_type", eventType).Str("key", key).Msg("failed to publish event")
	}
}
