// Package memory provides a map-backed implementation of the persistence repositories for
// tests and single-process deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// Storage keeps rooms, requests and audit events in memory. It is safe for concurrent use.
type Storage struct {
	mu       sync.RWMutex
	rooms    map[string]persistence.Room
	requests map[string]persistence.Request
	events   []persistence.AuditEvent
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		rooms:    make(map[string]persistence.Room),
		requests: make(map[string]persistence.Request),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- RoomRepository implementation ---

// CreateRoom stores a new room. Room codes are unique.
func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.rooms[room.ID]; ok {
		return fmt.Errorf("%w: room %s already exists", persistence.ErrDuplicate, room.ID)
	}
	if err := s.ensureUniqueCodeLocked(room.ID, room.Code); err != nil {
		return err
	}

	s.rooms[room.ID] = room
	return nil
}

// UpdateRoom updates an existing room.
func (s *Storage) UpdateRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	existing, ok := s.rooms[room.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueCodeLocked(room.ID, room.Code); err != nil {
		return err
	}

	room.CreatedAt = existing.CreatedAt
	room.CreatedBy = existing.CreatedBy
	s.rooms[room.ID] = room
	return nil
}

// GetRoom retrieves a room by ID.
func (s *Storage) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns rooms ordered by building, then code.
func (s *Storage) ListRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	building := strings.TrimSpace(filter.Building)
	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if filter.ActiveOnly && !room.IsActive {
			continue
		}
		if building != "" && room.Building != building {
			continue
		}
		rooms = append(rooms, room)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Building == rooms[j].Building {
			return rooms[i].Code < rooms[j].Code
		}
		return rooms[i].Building < rooms[j].Building
	})
	return rooms, nil
}

// CountRooms reports the total and active room counts.
func (s *Storage) CountRooms(ctx context.Context) (persistence.RoomCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := persistence.RoomCounts{Total: len(s.rooms)}
	for _, room := range s.rooms {
		if room.IsActive {
			counts.Active++
		}
	}
	return counts, nil
}

func (s *Storage) ensureUniqueCodeLocked(id, code string) error {
	for existingID, room := range s.rooms {
		if existingID != id && room.Code == code {
			return fmt.Errorf("%w: room code %s already exists", persistence.ErrDuplicate, code)
		}
	}
	return nil
}

// --- RequestRepository implementation ---

// CreateRequest stores a new request with its occurrences.
func (s *Storage) CreateRequest(ctx context.Context, request persistence.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.requests[request.ID]; ok {
		return fmt.Errorf("%w: request %s already exists", persistence.ErrDuplicate, request.ID)
	}
	if _, ok := s.rooms[request.RoomID]; !ok {
		return fmt.Errorf("%w: room %s does not exist", persistence.ErrForeignKeyViolation, request.RoomID)
	}

	s.requests[request.ID] = cloneRequest(request)
	return nil
}

// UpdateRequest replaces a request and its occurrences.
func (s *Storage) UpdateRequest(ctx context.Context, request persistence.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.requests[request.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	if _, ok := s.rooms[request.RoomID]; !ok {
		return fmt.Errorf("%w: room %s does not exist", persistence.ErrForeignKeyViolation, request.RoomID)
	}

	request.CreatedAt = existing.CreatedAt
	s.requests[request.ID] = cloneRequest(request)
	return nil
}

// GetRequest retrieves a request by ID.
func (s *Storage) GetRequest(ctx context.Context, id string) (persistence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	request, ok := s.requests[id]
	if !ok {
		return persistence.Request{}, persistence.ErrNotFound
	}
	return cloneRequest(request), nil
}

// ListRequests returns requests matching filter.
func (s *Storage) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	requests := make([]persistence.Request, 0)
	for _, request := range s.requests {
		if !s.matchesRequestFilterLocked(request, filter, search) {
			continue
		}
		requests = append(requests, cloneRequest(request))
	}

	key := requestSortKey(filter.SortBy)
	sort.Slice(requests, func(i, j int) bool {
		a, b := key(requests[i]), key(requests[j])
		if a.Equal(b) {
			if filter.Desc {
				return requests[i].ID > requests[j].ID
			}
			return requests[i].ID < requests[j].ID
		}
		if filter.Desc {
			return a.After(b)
		}
		return a.Before(b)
	})

	if filter.Limit > 0 && len(requests) > filter.Limit {
		requests = requests[:filter.Limit]
	}
	return requests, nil
}

// ListRoomOccurrences returns the room's occurrences overlapping [from, to). A zero bound is
// treated as unbounded on that side.
func (s *Storage) ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Occurrence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	occurrences := make([]persistence.Occurrence, 0)
	for _, request := range s.requests {
		for _, occ := range request.Occurrences {
			if occ.RoomID != roomID {
				continue
			}
			if !to.IsZero() && !occ.StartUTC.Before(to) {
				continue
			}
			if !from.IsZero() && !occ.EndUTC.After(from) {
				continue
			}
			occurrences = append(occurrences, occ)
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		if occurrences[i].StartUTC.Equal(occurrences[j].StartUTC) {
			return occurrences[i].ID < occurrences[j].ID
		}
		return occurrences[i].StartUTC.Before(occurrences[j].StartUTC)
	})
	return occurrences, nil
}

// CountRequestsByStatus returns the number of requests per status, ordered by status.
func (s *Storage) CountRequestsByStatus(ctx context.Context) ([]persistence.StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[string]int)
	for _, request := range s.requests {
		byStatus[request.Status]++
	}

	counts := make([]persistence.StatusCount, 0, len(byStatus))
	for status, count := range byStatus {
		counts = append(counts, persistence.StatusCount{Status: status, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Status < counts[j].Status
	})
	return counts, nil
}

func (s *Storage) matchesRequestFilterLocked(request persistence.Request, filter persistence.RequestFilter, search string) bool {
	if filter.Status != "" && request.Status != filter.Status {
		return false
	}
	if filter.RoomID != "" && request.RoomID != filter.RoomID {
		return false
	}
	if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
		return false
	}
	if search == "" {
		return true
	}

	room := s.rooms[request.RoomID]
	return containsFold(search, request.Purpose, request.RequesterName, request.RequesterID, room.Code, room.Name)
}

func requestSortKey(sortBy string) func(persistence.Request) time.Time {
	switch sortBy {
	case persistence.SortByModifiedAt:
		return func(r persistence.Request) time.Time { return r.ModifiedAt }
	case persistence.SortByStart:
		return func(r persistence.Request) time.Time { return r.StartUTC }
	default:
		return func(r persistence.Request) time.Time { return r.CreatedAt }
	}
}

// --- AuditRepository implementation ---

// AppendEvent records an audit event.
func (s *Storage) AppendEvent(ctx context.Context, event persistence.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}
	for _, existing := range s.events {
		if existing.ID == event.ID {
			return fmt.Errorf("%w: audit event %s already exists", persistence.ErrDuplicate, event.ID)
		}
	}

	s.events = append(s.events, event)
	return nil
}

// ListEvents returns audit events ordered by creation time.
func (s *Storage) ListEvents(ctx context.Context, filter persistence.AuditFilter) ([]persistence.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	events := make([]persistence.AuditEvent, 0, len(s.events))
	for _, event := range s.events {
		if filter.EntityType != "" && event.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && event.EntityID != filter.EntityID {
			continue
		}
		if search != "" && !containsFold(search, event.EventType, event.Actor, event.Details, event.EntityID) {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if filter.Desc {
			return events[i].CreatedAt.After(events[j].CreatedAt)
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

// --- Helpers ---

func cloneRequest(request persistence.Request) persistence.Request {
	if request.RecurrenceUntil != nil {
		until := *request.RecurrenceUntil
		request.RecurrenceUntil = &until
	}
	if request.Occurrences != nil {
		occurrences := make([]persistence.Occurrence, len(request.Occurrences))
		copy(occurrences, request.Occurrences)
		request.Occurrences = occurrences
	}
	return request
}

func containsFold(lowerNeedle string, values ...string) bool {
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), lowerNeedle) {
			return true
		}
	}
	return false
}
