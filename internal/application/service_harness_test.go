package application

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/example/room-booking/internal/booking"
)

var monday = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

var (
	admin = Principal{UserID: "admin", Name: "Site Admin", IsAdmin: true}
	ada   = Principal{UserID: "ada", Name: "Ada Lovelace"}
	grace = Principal{UserID: "grace", Name: "Grace Hopper"}
)

func at(day, hour int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
}

type serviceHarness struct {
	store     *storeStub
	locker    *lockerStub
	publisher *publisherStub
	clock     *manualClock
	rooms     *RoomService
	bookings  *BookingService
	analytics *AnalyticsService
}

func newServiceHarness(t *testing.T) *serviceHarness {
	t.Helper()

	store := newStoreStub()
	seq := &sequence{}
	clock := &manualClock{now: monday.Add(-72 * time.Hour)}
	locker := &lockerStub{}
	publisher := &publisherStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	audit := NewAuditTrail(store, publisher, seq.next, clock.Now, logger)
	return &serviceHarness{
		store:     store,
		locker:    locker,
		publisher: publisher,
		clock:     clock,
		rooms:     NewRoomServiceWithLogger(store, audit, seq.next, clock.Now, logger),
		bookings: NewBookingService(BookingServiceDeps{
			Rooms:       store,
			Requests:    store,
			Locker:      locker,
			Audit:       audit,
			IDGenerator: seq.next,
			Now:         clock.Now,
			Logger:      logger,
		}),
		analytics: NewAnalyticsServiceWithLogger(store, store, logger),
	}
}

func (h *serviceHarness) createRoom(t *testing.T, code, building string, capacity int) booking.Room {
	t.Helper()
	room, err := h.rooms.CreateRoom(context.Background(), CreateRoomParams{
		Principal: admin,
		Input:     RoomInput{Code: code, Name: "Room " + code, Building: building, Capacity: capacity},
	})
	if err != nil {
		t.Fatalf("CreateRoom(%s) failed: %v", code, err)
	}
	return room
}

func (h *serviceHarness) submit(principal Principal, roomID string, start, end time.Time) (booking.Request, error) {
	h.clock.Advance(time.Minute)
	return h.bookings.Submit(context.Background(), SubmitRequestParams{
		Principal: principal,
		Input: RequestInput{
			RoomID:        roomID,
			Purpose:       "Team sync",
			AttendeeCount: 5,
			Start:         start,
			End:           end,
		},
	})
}
