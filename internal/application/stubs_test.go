package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// storeStub is a hand-written in-memory implementation of every repository the services use.
type storeStub struct {
	mu       sync.Mutex
	rooms    map[string]booking.Room
	requests map[string]booking.Request
	events   []AuditEvent

	createRequestErr error
	appendErr        error
	occurrenceCalls  int
	// afterOccurrences runs once an occurrence read has returned its snapshot.
	afterOccurrences func()
}

func newStoreStub() *storeStub {
	return &storeStub{
		rooms:    make(map[string]booking.Room),
		requests: make(map[string]booking.Request),
	}
}

func (s *storeStub) CreateRoom(ctx context.Context, room booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rooms {
		if existing.Code == room.Code {
			return persistence.ErrDuplicate
		}
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *storeStub) GetRoom(ctx context.Context, id string) (booking.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return booking.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (s *storeStub) UpdateRoom(ctx context.Context, room booking.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *storeStub) ListRooms(ctx context.Context, filter RoomFilter) ([]booking.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []booking.Room
	for _, room := range s.rooms {
		if filter.ActiveOnly && !room.IsActive {
			continue
		}
		if filter.Building != "" && room.Building != filter.Building {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (s *storeStub) CountRooms(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := 0
	for _, room := range s.rooms {
		if room.IsActive {
			active++
		}
	}
	return len(s.rooms), active, nil
}

func (s *storeStub) CreateRequest(ctx context.Context, request booking.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createRequestErr != nil {
		return s.createRequestErr
	}
	s.requests[request.ID] = request.Clone()
	return nil
}

func (s *storeStub) UpdateRequest(ctx context.Context, request booking.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.requests[request.ID] = request.Clone()
	return nil
}

func (s *storeStub) GetRequest(ctx context.Context, id string) (booking.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[id]
	if !ok {
		return booking.Request{}, persistence.ErrNotFound
	}
	return request.Clone(), nil
}

func (s *storeStub) ListRequests(ctx context.Context, filter RequestFilter) ([]booking.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var requests []booking.Request
	for _, request := range s.requests {
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		if filter.RoomID != "" && request.RoomID != filter.RoomID {
			continue
		}
		if filter.RequesterID != "" && request.RequestedBy.ExternalID != filter.RequesterID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(request.Purpose), strings.ToLower(filter.Search)) {
			continue
		}
		requests = append(requests, request.Clone())
	}
	sort.Slice(requests, func(i, j int) bool {
		if filter.Desc {
			return requests[i].CreatedAt.After(requests[j].CreatedAt)
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *storeStub) ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]booking.Occurrence, error) {
	s.mu.Lock()
	s.occurrenceCalls++
	var occurrences []booking.Occurrence
	for _, request := range s.requests {
		for _, occ := range request.Occurrences {
			if occ.RoomID == roomID && occ.Start.Before(to) && from.Before(occ.End) {
				occurrences = append(occurrences, occ)
			}
		}
	}
	hook := s.afterOccurrences
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return occurrences, nil
}

func (s *storeStub) CountRequestsByStatus(ctx context.Context) ([]StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[booking.RequestStatus]int)
	for _, request := range s.requests {
		counts[request.Status]++
	}
	var out []StatusCount
	for _, status := range booking.Statuses {
		if counts[status] > 0 {
			out = append(out, StatusCount{Status: status, Count: counts[status]})
		}
	}
	return out, nil
}

func (s *storeStub) AppendEvent(ctx context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *storeStub) ListEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var events []AuditEvent
	for _, event := range s.events {
		if filter.EntityType != "" && event.EntityType != filter.EntityType {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *storeStub) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.EventType)
	}
	return types
}

type publisherStub struct {
	mu        sync.Mutex
	published []AuditEvent
	err       error
	onPublish func(AuditEvent)
}

func (p *publisherStub) Publish(ctx context.Context, event AuditEvent) error {
	p.mu.Lock()
	hook := p.onPublish
	p.mu.Unlock()
	if hook != nil {
		hook(event)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return p.err
}

type lockerStub struct {
	mu       sync.Mutex
	locked   []string
	released int
	err      error
}

func (l *lockerStub) Lock(ctx context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, roomID)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

func (l *lockerStub) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locked) - l.released
}

type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
