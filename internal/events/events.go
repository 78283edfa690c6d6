// Package events forwards audit events to downstream consumers.
package events

import (
	"context"
	"strings"
	"time"
)

// Event is the wire form of one audit record.
type Event struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	EventType  string    `json:"eventType"`
	Actor      string    `json:"actor"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAtUtc"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// SplitBrokers parses a comma separated broker list, dropping blanks.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
