package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/recurrence"
)

var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func TestRepositoriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repos := New(memory.New())

	room := booking.Room{
		ID: "room-1", Code: "LAB-1", Name: "Physics Lab", Building: "North", Capacity: 24,
		IsActive: true, CreatedBy: "root", CreatedAt: monday, UpdatedAt: monday,
	}
	if err := repos.Rooms.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	until := monday.AddDate(0, 0, 1)
	req := booking.Request{
		ID:              "req-1",
		RoomID:          room.ID,
		RequestedBy:     booking.Requester{Name: "Ada Lovelace", ExternalID: "ada"},
		Purpose:         "Lab session",
		AttendeeCount:   10,
		Start:           monday.Add(9 * time.Hour),
		End:             monday.Add(10 * time.Hour),
		Recurrence:      recurrence.PatternDaily,
		RecurrenceUntil: &until,
		Status:          booking.StatusApproved,
		AdminComment:    "ok",
		CreatedAt:       monday,
		ModifiedAt:      monday,
	}
	for i := 0; i < 2; i++ {
		start := req.Start.AddDate(0, 0, i)
		req.Occurrences = append(req.Occurrences, booking.Occurrence{
			ID: "occ-" + string(rune('a'+i)), RequestID: req.ID, RoomID: room.ID,
			Start: start, End: start.Add(time.Hour), Status: booking.StatusApproved, CreatedAt: monday,
		})
	}
	if err := repos.Requests.CreateRequest(ctx, req); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	got, err := repos.Requests.GetRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.RequestedBy != req.RequestedBy || got.Recurrence != recurrence.PatternDaily || got.Status != booking.StatusApproved {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.RecurrenceUntil == nil || !got.RecurrenceUntil.Equal(until) {
		t.Fatalf("unexpected until %v", got.RecurrenceUntil)
	}
	if len(got.Occurrences) != 2 || got.Occurrences[1].Status != booking.StatusApproved {
		t.Fatalf("unexpected occurrences %+v", got.Occurrences)
	}

	// The caller's until must not alias the stored one.
	*got.RecurrenceUntil = time.Time{}
	again, _ := repos.Requests.GetRequest(ctx, req.ID)
	if !again.RecurrenceUntil.Equal(until) {
		t.Fatalf("stored until was mutated through the returned pointer")
	}

	occurrences, err := repos.Requests.ListRoomOccurrences(ctx, room.ID, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 2))
	if err != nil || len(occurrences) != 1 || occurrences[0].ID != "occ-b" {
		t.Fatalf("unexpected occurrences %+v (%v)", occurrences, err)
	}

	list, err := repos.Requests.ListRequests(ctx, application.RequestFilter{Status: booking.StatusApproved})
	if err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}
	empty, err := repos.Requests.ListRequests(ctx, application.RequestFilter{Status: booking.StatusDraft})
	if err != nil || empty != nil {
		t.Fatalf("expected nil slice for no matches, got %+v (%v)", empty, err)
	}

	total, active, err := repos.Stats.CountRooms(ctx)
	if err != nil || total != 1 || active != 1 {
		t.Fatalf("unexpected room counts %d/%d (%v)", total, active, err)
	}
	counts, err := repos.Stats.CountRequestsByStatus(ctx)
	if err != nil || len(counts) != 1 || counts[0].Status != booking.StatusApproved || counts[0].Count != 1 {
		t.Fatalf("unexpected status counts %+v (%v)", counts, err)
	}
}

func TestRepositoriesPassErrorsThrough(t *testing.T) {
	ctx := context.Background()
	repos := New(memory.New())

	if _, err := repos.Rooms.GetRoom(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repos.Requests.GetRequest(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	err := repos.Requests.CreateRequest(ctx, booking.Request{ID: "req-1", RoomID: "nowhere", Start: monday, End: monday.Add(time.Hour)})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestAuditRepository(t *testing.T) {
	ctx := context.Background()
	repos := New(memory.New())

	for i, eventType := range []string{"room.created", "room.deactivated"} {
		err := repos.Audit.AppendEvent(ctx, application.AuditEvent{
			ID: eventType, EntityType: application.EntityRoom, EntityID: "room-1",
			EventType: eventType, Actor: "root", CreatedAt: monday.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	events, err := repos.Audit.ListEvents(ctx, application.AuditFilter{EntityID: "room-1", Desc: true})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "room.deactivated" || events[1].EventType != "room.created" {
		t.Fatalf("unexpected events %+v", events)
	}
}
