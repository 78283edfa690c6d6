package application

import (
	"context"
	"log/slog"
	"time"
)

// AuditRepository stores the audit trail.
type AuditRepository interface {
	AppendEvent(ctx context.Context, event AuditEvent) error
	ListEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
}

// EventPublisher forwards audit events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event AuditEvent) error
}

// AuditTrail records audit events after successful mutations. Recording never fails the
// mutation it describes; storage and publish errors are logged.
type AuditTrail struct {
	repo        AuditRepository
	publisher   EventPublisher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditTrail constructs an AuditTrail. Either repo or publisher may be nil.
func NewAuditTrail(repo AuditRepository, publisher EventPublisher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuditTrail {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuditTrail{repo: repo, publisher: publisher, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// Record appends and publishes one event.
func (a *AuditTrail) Record(ctx context.Context, entityType, entityID, eventType string, actor Principal, details string) {
	if a == nil {
		return
	}

	event := AuditEvent{
		ID:         a.idGenerator(),
		EntityType: entityType,
		EntityID:   entityID,
		EventType:  eventType,
		Actor:      actor.UserID,
		Details:    details,
		CreatedAt:  a.now().UTC(),
	}
	logger := serviceLogger(ctx, a.logger, "AuditTrail", "Record",
		"event_id", event.ID,
		"event_type", event.EventType,
		"entity_id", event.EntityID,
	)

	if a.repo != nil {
		if err := a.repo.AppendEvent(ctx, event); err != nil {
			logger.WarnContext(ctx, "failed to store audit event", "error", err)
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, event); err != nil {
			logger.WarnContext(ctx, "failed to publish audit event", "error", err)
		}
	}
}
