// Package storage adapts the persistence repositories, which speak in row models, to the
// domain typed repositories the application services depend on.
package storage

import (
	"context"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/recurrence"
)

// Backend is a store implementing every persistence repository.
type Backend interface {
	persistence.RoomRepository
	persistence.RequestRepository
	persistence.AuditRepository
}

// Repositories bundles the application facing adapters over one backend.
type Repositories struct {
	Rooms    *RoomRepository
	Requests *RequestRepository
	Audit    *AuditRepository
	Stats    *StatsRepository
}

// New wraps backend for use by the application services.
func New(backend Backend) Repositories {
	return Repositories{
		Rooms:    NewRoomRepository(backend),
		Requests: NewRequestRepository(backend),
		Audit:    NewAuditRepository(backend),
		Stats:    NewStatsRepository(backend, backend),
	}
}

type RoomRepository struct {
	repo persistence.RoomRepository
}

func NewRoomRepository(repo persistence.RoomRepository) *RoomRepository {
	return &RoomRepository{repo: repo}
}

func (a *RoomRepository) CreateRoom(ctx context.Context, room booking.Room) error {
	return a.repo.CreateRoom(ctx, toPersistenceRoom(room))
}

func (a *RoomRepository) GetRoom(ctx context.Context, id string) (booking.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return booking.Room{}, err
	}
	return toBookingRoom(stored), nil
}

func (a *RoomRepository) UpdateRoom(ctx context.Context, room booking.Room) error {
	return a.repo.UpdateRoom(ctx, toPersistenceRoom(room))
}

func (a *RoomRepository) ListRooms(ctx context.Context, filter application.RoomFilter) ([]booking.Room, error) {
	models, err := a.repo.ListRooms(ctx, persistence.RoomFilter{ActiveOnly: filter.ActiveOnly, Building: filter.Building})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	rooms := make([]booking.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toBookingRoom(model))
	}
	return rooms, nil
}

type RequestRepository struct {
	repo persistence.RequestRepository
}

func NewRequestRepository(repo persistence.RequestRepository) *RequestRepository {
	return &RequestRepository{repo: repo}
}

func (a *RequestRepository) CreateRequest(ctx context.Context, request booking.Request) error {
	return a.repo.CreateRequest(ctx, toPersistenceRequest(request))
}

func (a *RequestRepository) UpdateRequest(ctx context.Context, request booking.Request) error {
	return a.repo.UpdateRequest(ctx, toPersistenceRequest(request))
}

func (a *RequestRepository) GetRequest(ctx context.Context, id string) (booking.Request, error) {
	stored, err := a.repo.GetRequest(ctx, id)
	if err != nil {
		return booking.Request{}, err
	}
	return toBookingRequest(stored), nil
}

func (a *RequestRepository) ListRequests(ctx context.Context, filter application.RequestFilter) ([]booking.Request, error) {
	models, err := a.repo.ListRequests(ctx, persistence.RequestFilter{
		Status:      string(filter.Status),
		RoomID:      filter.RoomID,
		RequesterID: filter.RequesterID,
		Search:      filter.Search,
		SortBy:      filter.SortBy,
		Desc:        filter.Desc,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	requests := make([]booking.Request, 0, len(models))
	for _, model := range models {
		requests = append(requests, toBookingRequest(model))
	}
	return requests, nil
}

func (a *RequestRepository) ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]booking.Occurrence, error) {
	models, err := a.repo.ListRoomOccurrences(ctx, roomID, from, to)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	occurrences := make([]booking.Occurrence, 0, len(models))
	for _, model := range models {
		occurrences = append(occurrences, toBookingOccurrence(model))
	}
	return occurrences, nil
}

type AuditRepository struct {
	repo persistence.AuditRepository
}

func NewAuditRepository(repo persistence.AuditRepository) *AuditRepository {
	return &AuditRepository{repo: repo}
}

func (a *AuditRepository) AppendEvent(ctx context.Context, event application.AuditEvent) error {
	return a.repo.AppendEvent(ctx, persistence.AuditEvent{
		ID:         event.ID,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		EventType:  event.EventType,
		Actor:      event.Actor,
		Details:    event.Details,
		CreatedAt:  event.CreatedAt,
	})
}

func (a *AuditRepository) ListEvents(ctx context.Context, filter application.AuditFilter) ([]application.AuditEvent, error) {
	models, err := a.repo.ListEvents(ctx, persistence.AuditFilter{
		Search:     filter.Search,
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		Desc:       filter.Desc,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	events := make([]application.AuditEvent, 0, len(models))
	for _, model := range models {
		events = append(events, application.AuditEvent{
			ID:         model.ID,
			EntityType: model.EntityType,
			EntityID:   model.EntityID,
			EventType:  model.EventType,
			Actor:      model.Actor,
			Details:    model.Details,
			CreatedAt:  model.CreatedAt,
		})
	}
	return events, nil
}

// StatsRepository answers the analytics counters.
type StatsRepository struct {
	rooms    persistence.RoomRepository
	requests persistence.RequestRepository
}

func NewStatsRepository(rooms persistence.RoomRepository, requests persistence.RequestRepository) *StatsRepository {
	return &StatsRepository{rooms: rooms, requests: requests}
}

func (a *StatsRepository) CountRooms(ctx context.Context) (total, active int, err error) {
	counts, err := a.rooms.CountRooms(ctx)
	if err != nil {
		return 0, 0, err
	}
	return counts.Total, counts.Active, nil
}

func (a *StatsRepository) CountRequestsByStatus(ctx context.Context) ([]application.StatusCount, error) {
	models, err := a.requests.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	counts := make([]application.StatusCount, 0, len(models))
	for _, model := range models {
		counts = append(counts, application.StatusCount{Status: booking.RequestStatus(model.Status), Count: model.Count})
	}
	return counts, nil
}

func toPersistenceRoom(room booking.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Code:      room.Code,
		Name:      room.Name,
		Building:  room.Building,
		Capacity:  room.Capacity,
		IsActive:  room.IsActive,
		CreatedBy: room.CreatedBy,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toBookingRoom(model persistence.Room) booking.Room {
	return booking.Room{
		ID:        model.ID,
		Code:      model.Code,
		Name:      model.Name,
		Building:  model.Building,
		Capacity:  model.Capacity,
		IsActive:  model.IsActive,
		CreatedBy: model.CreatedBy,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceRequest(req booking.Request) persistence.Request {
	model := persistence.Request{
		ID:                req.ID,
		RoomID:            req.RoomID,
		RequesterName:     req.RequestedBy.Name,
		RequesterID:       req.RequestedBy.ExternalID,
		Purpose:           req.Purpose,
		AttendeeCount:     req.AttendeeCount,
		StartUTC:          req.Start,
		EndUTC:            req.End,
		RecurrencePattern: string(req.Recurrence),
		Status:            string(req.Status),
		AdminComment:      req.AdminComment,
		CreatedAt:         req.CreatedAt,
		ModifiedAt:        req.ModifiedAt,
	}
	if req.RecurrenceUntil != nil {
		until := *req.RecurrenceUntil
		model.RecurrenceUntil = &until
	}
	if len(req.Occurrences) > 0 {
		model.Occurrences = make([]persistence.Occurrence, 0, len(req.Occurrences))
		for _, occ := range req.Occurrences {
			model.Occurrences = append(model.Occurrences, persistence.Occurrence{
				ID:        occ.ID,
				RequestID: occ.RequestID,
				RoomID:    occ.RoomID,
				StartUTC:  occ.Start,
				EndUTC:    occ.End,
				Status:    string(occ.Status),
				CreatedAt: occ.CreatedAt,
			})
		}
	}
	return model
}

func toBookingRequest(model persistence.Request) booking.Request {
	req := booking.Request{
		ID:            model.ID,
		RoomID:        model.RoomID,
		RequestedBy:   booking.Requester{Name: model.RequesterName, ExternalID: model.RequesterID},
		Purpose:       model.Purpose,
		AttendeeCount: model.AttendeeCount,
		Start:         model.StartUTC,
		End:           model.EndUTC,
		Recurrence:    recurrence.Pattern(model.RecurrencePattern),
		Status:        booking.RequestStatus(model.Status),
		AdminComment:  model.AdminComment,
		CreatedAt:     model.CreatedAt,
		ModifiedAt:    model.ModifiedAt,
	}
	if model.RecurrenceUntil != nil {
		until := *model.RecurrenceUntil
		req.RecurrenceUntil = &until
	}
	if len(model.Occurrences) > 0 {
		req.Occurrences = make([]booking.Occurrence, 0, len(model.Occurrences))
		for _, occ := range model.Occurrences {
			req.Occurrences = append(req.Occurrences, toBookingOccurrence(occ))
		}
	}
	return req
}

func toBookingOccurrence(model persistence.Occurrence) booking.Occurrence {
	return booking.Occurrence{
		ID:        model.ID,
		RequestID: model.RequestID,
		RoomID:    model.RoomID,
		Start:     model.StartUTC,
		End:       model.EndUTC,
		Status:    booking.RequestStatus(model.Status),
		CreatedAt: model.CreatedAt,
	}
}
