package persistence

import (
	"context"
	"time"
)

// RoomFilter narrows room queries.
type RoomFilter struct {
	ActiveOnly bool
	Building   string
}

// RoomRepository stores the room catalog.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
	CountRooms(ctx context.Context) (RoomCounts, error)
}

// Request sort keys.
const (
	SortByCreatedAt  = "createdAt"
	SortByModifiedAt = "modifiedAt"
	SortByStart      = "startUtc"
)

// RequestFilter narrows request queries. Search matches purpose, requester name or id, and
// room code or name, case-insensitively.
type RequestFilter struct {
	Status      string
	RoomID      string
	RequesterID string
	Search      string
	SortBy      string
	Desc        bool
	Limit       int
}

// RequestRepository stores booking requests and their occurrences. Writes replace a
// request's occurrences in the same transaction as the request row.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request Request) error
	UpdateRequest(ctx context.Context, request Request) error
	GetRequest(ctx context.Context, id string) (Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]Occurrence, error)
	CountRequestsByStatus(ctx context.Context) ([]StatusCount, error)
}

// AuditFilter narrows audit event queries.
type AuditFilter struct {
	Search     string
	EntityType string
	EntityID   string
	Desc       bool
	Limit      int
}

// AuditRepository stores the audit trail.
type AuditRepository interface {
	AppendEvent(ctx context.Context, event AuditEvent) error
	ListEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
}
