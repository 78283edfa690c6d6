package main

import (
	"context"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/events"
)

type eventPublisherAdapter struct {
	publisher events.Publisher
}

func newEventPublisherAdapter(publisher events.Publisher) *eventPublisherAdapter {
	return &eventPublisherAdapter{publisher: publisher}
}

func (a *eventPublisherAdapter) Publish(ctx context.Context, event application.AuditEvent) error {
	return a.publisher.Publish(ctx, toWireEvent(event))
}

func toWireEvent(event application.AuditEvent) events.Event {
	return events.Event{
		ID:         event.ID,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		EventType:  event.EventType,
		Actor:      event.Actor,
		Details:    event.Details,
		CreatedAt:  event.CreatedAt.UTC(),
	}
}
