package testfixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/recurrence"
)

var (
	admin = application.Principal{UserID: "root", Name: "Admin", IsAdmin: true}
	ada   = application.Principal{UserID: "ada", Name: "Ada Lovelace"}
	budi  = application.Principal{UserID: "5025201001", Name: "Budi Santoso"}
)

func bookedHours(grid availability.Grid) []int {
	var hours []int
	for _, slot := range grid.Slots {
		if slot.State == availability.SlotBooked {
			hours = append(hours, slot.Hour)
		}
	}
	return hours
}

func TestServicesAgainstStores(t *testing.T) {
	EachStore(t, func(t *testing.T, h *StoreHarness) {
		ctx := context.Background()
		svc := NewServiceFactory().Wire(h, ServiceOptions{})

		room, err := svc.Rooms.CreateRoom(ctx, application.CreateRoomParams{
			Principal: admin,
			Input:     application.RoomInput{Code: "LAB-1", Name: "Lab", Building: "North", Capacity: 12},
		})
		if err != nil {
			t.Fatalf("CreateRoom: %v", err)
		}

		submit := func(p application.Principal, startHour, endHour int) (booking.Request, error) {
			return svc.Bookings.Submit(ctx, application.SubmitRequestParams{
				Principal: p,
				Input: application.RequestInput{
					RoomID:        room.ID,
					Purpose:       "review",
					AttendeeCount: 3,
					Start:         At(0, startHour),
					End:           At(0, endHour),
				},
			})
		}

		first, err := submit(ada, 9, 11)
		if err != nil {
			t.Fatalf("first submit: %v", err)
		}
		if first.Status != booking.StatusSubmitted || len(first.Occurrences) != 1 {
			t.Fatalf("unexpected first request: %+v", first)
		}

		_, err = submit(budi, 10, 12)
		var cErr *booking.ConflictError
		if !errors.As(err, &cErr) || cErr.Conflicts[0].WithRequestID != first.ID {
			t.Fatalf("expected conflict with %s, got %v", first.ID, err)
		}

		strict, err := svc.Bookings.Availability(ctx, application.AvailabilityParams{RoomID: room.ID, Day: At(0, 0), Mode: "strict"})
		if err != nil {
			t.Fatalf("Availability: %v", err)
		}
		if hours := bookedHours(strict.Grid); len(hours) != 0 {
			t.Fatalf("submitted request must not block the strict grid, got %v", hours)
		}

		approved, err := svc.Bookings.Decide(ctx, application.DecideParams{Principal: admin, RequestID: first.ID, Approve: true, Comment: "ok"})
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if approved.Status != booking.StatusApproved || approved.Occurrences[0].Status != booking.StatusApproved {
			t.Fatalf("unexpected approval: %+v", approved)
		}

		strict, err = svc.Bookings.Availability(ctx, application.AvailabilityParams{RoomID: room.ID, Day: At(0, 0), Mode: "strict"})
		if err != nil {
			t.Fatalf("Availability: %v", err)
		}
		if hours := bookedHours(strict.Grid); len(hours) != 2 || hours[0] != 9 || hours[1] != 10 {
			t.Fatalf("expected 9 and 10 booked, got %v", hours)
		}

		stored, err := svc.Bookings.GetRequest(ctx, application.RequestActionParams{Principal: ada, RequestID: first.ID})
		if err != nil {
			t.Fatalf("GetRequest: %v", err)
		}
		if stored.AdminComment != "ok" || stored.RequestedBy.ExternalID != "ada" {
			t.Fatalf("stored request lost fields: %+v", stored)
		}

		if _, err := svc.Bookings.Cancel(ctx, application.RequestActionParams{Principal: ada, RequestID: first.ID}); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		second, err := submit(budi, 10, 12)
		if err != nil {
			t.Fatalf("submit after cancel: %v", err)
		}

		queue, err := svc.Bookings.ApprovalQueue(ctx, admin)
		if err != nil || len(queue) != 1 || queue[0].ID != second.ID {
			t.Fatalf("unexpected queue %v (%v)", queue, err)
		}

		summary, err := svc.Analytics.Summary(ctx, admin)
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		counts := make(map[booking.RequestStatus]int)
		for _, c := range summary.RequestCounts {
			counts[c.Status] = c.Count
		}
		if summary.TotalRooms != 1 || summary.ActiveRooms != 1 || counts[booking.StatusCancelled] != 1 || counts[booking.StatusSubmitted] != 1 {
			t.Fatalf("unexpected summary: %+v", summary)
		}

		events, err := svc.Analytics.ListEvents(ctx, application.ListEventsParams{
			Principal: admin,
			Filter:    application.AuditFilter{EntityID: first.ID},
		})
		if err != nil {
			t.Fatalf("ListEvents: %v", err)
		}
		var types []string
		for _, e := range events {
			types = append(types, e.EventType)
		}
		want := []string{"request.submitted", "request.approved", "request.cancelled"}
		if len(types) != len(want) {
			t.Fatalf("expected %v, got %v", want, types)
		}
		for i := range want {
			if types[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, types)
			}
		}
	})
}

func TestServicesRecurringRequests(t *testing.T) {
	EachStore(t, func(t *testing.T, h *StoreHarness) {
		ctx := context.Background()
		roomFx := NewRoomFixture()
		h.SeedRooms(t, roomFx)
		h.SeedRequests(t, NewRequestFixture(roomFx.ID,
			WithInterval(At(2, 14), At(2, 15)),
			WithStatus(booking.StatusApproved),
		))
		svc := NewServiceFactory().Wire(h, ServiceOptions{MaxOccurrences: 10})

		until := At(4, 0)
		_, err := svc.Bookings.Submit(ctx, application.SubmitRequestParams{
			Principal: ada,
			Input: application.RequestInput{
				RoomID:          roomFx.ID,
				Purpose:         "daily sync",
				AttendeeCount:   2,
				Start:           At(0, 14),
				End:             At(0, 15),
				Recurrence:      string(recurrence.PatternDaily),
				RecurrenceUntil: &until,
			},
		})
		var cErr *booking.ConflictError
		if !errors.As(err, &cErr) || len(cErr.Conflicts) != 1 || !cErr.Conflicts[0].Candidate.Start.Equal(At(2, 14)) {
			t.Fatalf("expected one conflict on Wednesday, got %v", err)
		}

		until = At(1, 0)
		req, err := svc.Bookings.Submit(ctx, application.SubmitRequestParams{
			Principal: ada,
			Input: application.RequestInput{
				RoomID:          roomFx.ID,
				Purpose:         "daily sync",
				AttendeeCount:   2,
				Start:           At(0, 14),
				End:             At(0, 15),
				Recurrence:      string(recurrence.PatternDaily),
				RecurrenceUntil: &until,
			},
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if len(req.Occurrences) != 2 {
			t.Fatalf("expected Monday and Tuesday occurrences, got %d", len(req.Occurrences))
		}
	})
}

func TestServiceFactoryDefaults(t *testing.T) {
	factory := NewServiceFactory()
	if factory.Clock == nil || factory.IDGenerator == nil || factory.Logger == nil {
		t.Fatalf("expected defaults, got %+v", factory)
	}
	first := factory.Clock.Now()
	if !factory.Clock.Now().After(first) {
		t.Fatalf("expected stepping clock")
	}

	custom := NewServiceFactory(WithClock(nil), WithIDGenerator(NewIDGenerator("x")))
	if custom.Clock == nil || custom.IDGenerator.Next() != "x-1" {
		t.Fatalf("unexpected custom factory")
	}
}
