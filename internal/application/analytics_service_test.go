package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-booking/internal/booking"
)

func TestAnalyticsService_Summary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newServiceHarness(t)
	room := h.createRoom(t, "A-1", "Main", 10)
	h.createRoom(t, "A-2", "Main", 10)
	if _, err := h.rooms.DeactivateRoom(ctx, admin, room.ID); err != nil {
		t.Fatalf("DeactivateRoom failed: %v", err)
	}
	other, err := h.rooms.ListRooms(ctx, RoomFilter{ActiveOnly: true})
	if err != nil || len(other) != 1 {
		t.Fatalf("ListRooms: %v %v", other, err)
	}
	if _, err := h.submit(ada, other[0].ID, at(0, 9), at(0, 10)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := h.analytics.Summary(ctx, ada); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	summary, err := h.analytics.Summary(ctx, admin)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalRooms != 2 || summary.ActiveRooms != 1 {
		t.Fatalf("unexpected room totals: %+v", summary)
	}
	if len(summary.RequestCounts) != 1 || summary.RequestCounts[0].Status != booking.StatusSubmitted || summary.RequestCounts[0].Count != 1 {
		t.Fatalf("unexpected request counts: %+v", summary.RequestCounts)
	}
}

func TestAnalyticsService_ListEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newServiceHarness(t)
	room := h.createRoom(t, "A-1", "Main", 10)
	if _, err := h.submit(ada, room.ID, at(0, 9), at(0, 10)); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := h.analytics.ListEvents(ctx, ListEventsParams{Principal: ada}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	events, err := h.analytics.ListEvents(ctx, ListEventsParams{Principal: admin, Filter: AuditFilter{EntityType: EntityRequest}})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "request.submitted" || events[0].Actor != "ada" {
		t.Fatalf("unexpected events: %+v", events)
	}

	_, err = h.analytics.ListEvents(ctx, ListEventsParams{Principal: admin, Filter: AuditFilter{Limit: -1}})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["limit"] == "" {
		t.Fatalf("expected limit validation error, got %v", err)
	}
}
