package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatalf("expected no logger on a bare context")
	}

	logger := slog.Default()
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected stored logger to be returned")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatalf("expected nil logger to leave context unchanged")
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := New(&buf, slog.LevelDebug)

	ctx, logger := With(context.Background(), base, "request_id", "req-1")
	_, nested := With(ctx, nil, "room_id", "r1")
	nested.DebugContext(ctx, "hello")
	if FromContext(ctx) != logger {
		t.Fatalf("expected derived logger in context")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["room_id"] != "r1" || entry["msg"] != "hello" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}
