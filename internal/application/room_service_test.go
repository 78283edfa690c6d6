package application

import (
	"context"
	"errors"
	"testing"
)

func TestRoomService_CreateRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requires administrator privileges", func(t *testing.T) {
		t.Parallel()
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(ctx, CreateRoomParams{
			Principal: ada,
			Input:     RoomInput{Code: "A-1", Name: "A", Building: "Main", Capacity: 4},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc := NewRoomService(nil, nil, nil)

		_, err := svc.CreateRoom(ctx, CreateRoomParams{Principal: admin, Input: RoomInput{Code: " ", Capacity: 0}})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"code", "name", "building", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s to be reported, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists trimmed room and records audit", func(t *testing.T) {
		t.Parallel()
		h := newServiceHarness(t)

		room, err := h.rooms.CreateRoom(ctx, CreateRoomParams{
			Principal: admin,
			Input:     RoomInput{Code: " B-201 ", Name: " Lab ", Building: " East ", Capacity: 12},
		})
		if err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
		if room.Code != "B-201" || room.Name != "Lab" || room.Building != "East" || !room.IsActive || room.CreatedBy != "admin" {
			t.Fatalf("unexpected room: %+v", room)
		}
		if _, ok := h.store.rooms[room.ID]; !ok {
			t.Fatalf("expected room to be stored")
		}
		if types := h.store.eventTypes(); len(types) != 1 || types[0] != "room.created" {
			t.Fatalf("unexpected audit events: %v", types)
		}
	})

	t.Run("duplicate code", func(t *testing.T) {
		t.Parallel()
		h := newServiceHarness(t)
		h.createRoom(t, "A-1", "Main", 4)

		_, err := h.rooms.CreateRoom(ctx, CreateRoomParams{
			Principal: admin,
			Input:     RoomInput{Code: "A-1", Name: "Copy", Building: "Main", Capacity: 4},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		if ErrorKind(err) != "already_exists" {
			t.Fatalf("unexpected error kind %q", ErrorKind(err))
		}
	})
}

func TestRoomService_DeactivateRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newServiceHarness(t)
	room := h.createRoom(t, "A-1", "Main", 4)

	if _, err := h.rooms.DeactivateRoom(ctx, ada, room.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	deactivated, err := h.rooms.DeactivateRoom(ctx, admin, room.ID)
	if err != nil {
		t.Fatalf("DeactivateRoom failed: %v", err)
	}
	if deactivated.IsActive {
		t.Fatalf("expected room to be inactive")
	}

	if _, err := h.rooms.DeactivateRoom(ctx, admin, room.ID); err != nil {
		t.Fatalf("expected deactivation to be idempotent, got %v", err)
	}
	if types := h.store.eventTypes(); len(types) != 2 || types[1] != "room.deactivated" {
		t.Fatalf("expected a single deactivation event, got %v", types)
	}

	if _, err := h.rooms.DeactivateRoom(ctx, admin, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomService_ListRooms(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newServiceHarness(t)
	h.createRoom(t, "W-2", "West", 4)
	h.createRoom(t, "E-9", "East", 4)
	h.createRoom(t, "E-1", "East", 4)
	closed := h.createRoom(t, "N-1", "North", 4)
	if _, err := h.rooms.DeactivateRoom(ctx, admin, closed.ID); err != nil {
		t.Fatalf("DeactivateRoom failed: %v", err)
	}

	rooms, err := h.rooms.ListRooms(ctx, RoomFilter{})
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	want := []string{"E-1", "E-9", "N-1", "W-2"}
	if len(rooms) != len(want) {
		t.Fatalf("expected %d rooms, got %d", len(want), len(rooms))
	}
	for i, code := range want {
		if rooms[i].Code != code {
			t.Fatalf("position %d: expected %s, got %s", i, code, rooms[i].Code)
		}
	}

	active, err := h.rooms.ListRooms(ctx, RoomFilter{ActiveOnly: true, Building: " East "})
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active East rooms, got %d", len(active))
	}

	buildings, err := h.rooms.ListBuildings(ctx)
	if err != nil {
		t.Fatalf("ListBuildings failed: %v", err)
	}
	if len(buildings) != 2 || buildings[0] != "East" || buildings[1] != "West" {
		t.Fatalf("unexpected buildings: %v", buildings)
	}
}
