package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type writerStub struct {
	messages []kafka.Message
	err      error
	closed   bool
	deadline bool
}

func (w *writerStub) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Parallel()

	writer := &writerStub{}
	publisher := newKafkaPublisher(writer)
	created := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

	event := Event{
		ID:         "evt-1",
		EntityType: "request",
		EntityID:   "req-1",
		EventType:  "request.submitted",
		Actor:      "ada",
		CreatedAt:  created,
	}
	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "req-1" || !msg.Time.Equal(created) || !writer.deadline {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if HeaderValue(msg.Headers, "event_id") != "evt-1" || HeaderValue(msg.Headers, "event_type") != "request.submitted" {
		t.Fatalf("unexpected headers: %+v", msg.Headers)
	}
	if HeaderValue(msg.Headers, "missing") != "" {
		t.Fatalf("expected empty value for missing header")
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["entityId"] != "req-1" || decoded["createdAtUtc"] != "2024-03-04T09:00:00Z" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
	if _, ok := decoded["details"]; ok {
		t.Fatalf("expected empty details to be omitted")
	}

	if err := publisher.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer to be closed")
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	t.Parallel()

	cause := errors.New("leader not available")
	publisher := newKafkaPublisher(&writerStub{err: cause})
	if err := publisher.Publish(context.Background(), Event{ID: "evt-1"}); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	t.Parallel()

	if _, err := NewKafkaPublisher(nil, ""); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestSplitBrokers(t *testing.T) {
	t.Parallel()

	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092,")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if SplitBrokers("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("Noop.Publish returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Noop.Close returned %v", err)
	}
}
