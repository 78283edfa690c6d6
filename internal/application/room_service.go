package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
)

// RoomRepository captures the persistence operations needed by the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room booking.Room) error
	GetRoom(ctx context.Context, id string) (booking.Room, error)
	UpdateRoom(ctx context.Context, room booking.Room) error
	ListRooms(ctx context.Context, filter RoomFilter) ([]booking.Room, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	audit       *AuditTrail
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, nil, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with an audit trail and a logger.
func NewRoomServiceWithLogger(rooms RoomRepository, audit *AuditTrail, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, audit: audit, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new active room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room booking.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID, "room_code", room.Code).InfoContext(ctx, "room created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().UTC()
	room = booking.Room{
		ID:        s.idGenerator(),
		Code:      strings.TrimSpace(params.Input.Code),
		Name:      strings.TrimSpace(params.Input.Name),
		Building:  strings.TrimSpace(params.Input.Building),
		Capacity:  params.Input.Capacity,
		IsActive:  true,
		CreatedBy: params.Principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.rooms == nil {
		return
	}

	if err = s.rooms.CreateRoom(ctx, room); err != nil {
		err = mapRepoError(err)
		room = booking.Room{}
		return
	}

	s.audit.Record(ctx, EntityRoom, room.ID, "room.created", params.Principal,
		fmt.Sprintf("%s %s (%s, capacity %d)", room.Code, room.Name, room.Building, room.Capacity))
	return
}

// GetRoom returns a room by id.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (booking.Room, error) {
	if s == nil || s.rooms == nil {
		return booking.Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return booking.Room{}, mapRepoError(err)
	}
	return room, nil
}

// DeactivateRoom takes a room out of service. Existing requests are untouched; new
// submissions against the room fail validation.
func (s *RoomService) DeactivateRoom(ctx context.Context, principal Principal, roomID string) (room booking.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeactivateRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deactivated")
	}()

	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if !room.IsActive {
		return
	}

	room.IsActive = false
	room.UpdatedAt = s.now().UTC()
	if err = s.rooms.UpdateRoom(ctx, room); err != nil {
		err = mapRepoError(err)
		room = booking.Room{}
		return
	}

	s.audit.Record(ctx, EntityRoom, room.ID, "room.deactivated", principal, room.Code)
	return
}

// ListRooms returns the room catalog ordered by building, then code.
func (s *RoomService) ListRooms(ctx context.Context, filter RoomFilter) (rooms []booking.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"active_only", filter.ActiveOnly,
		"building", filter.Building,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	filter.Building = strings.TrimSpace(filter.Building)
	var raw []booking.Room
	raw, err = s.rooms.ListRooms(ctx, filter)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	rooms = make([]booking.Room, len(raw))
	copy(rooms, raw)
	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].Building == rooms[j].Building {
			return rooms[i].Code < rooms[j].Code
		}
		return rooms[i].Building < rooms[j].Building
	})
	return
}

// ListBuildings returns the distinct buildings that have at least one active room.
func (s *RoomService) ListBuildings(ctx context.Context) ([]string, error) {
	rooms, err := s.ListRooms(ctx, RoomFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rooms))
	buildings := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if _, ok := seen[room.Building]; ok {
			continue
		}
		seen[room.Building] = struct{}{}
		buildings = append(buildings, room.Building)
	}
	sort.Strings(buildings)
	return buildings, nil
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Code) == "" {
		vErr.Add("code", "code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.Add("name", "name is required")
	}
	if strings.TrimSpace(input.Building) == "" {
		vErr.Add("building", "building is required")
	}
	if input.Capacity <= 0 {
		vErr.Add("capacity", "capacity must be positive")
	}

	return vErr
}
