package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

// RequestRepository captures the persistence operations needed for booking requests.
// Writes store a request together with its occurrences atomically.
type RequestRepository interface {
	CreateRequest(ctx context.Context, request booking.Request) error
	UpdateRequest(ctx context.Context, request booking.Request) error
	GetRequest(ctx context.Context, id string) (booking.Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]booking.Request, error)
	ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]booking.Occurrence, error)
}

// RoomLocker serializes conflict-checked writes per room. The returned function releases
// the lock.
type RoomLocker interface {
	Lock(ctx context.Context, roomID string) (func(), error)
}

// BookingServiceDeps captures the collaborators of a BookingService.
type BookingServiceDeps struct {
	Rooms        RoomRepository
	Requests     RequestRepository
	Locker       RoomLocker
	Audit        *AuditTrail
	Engine       *recurrence.Engine
	Window       availability.Window
	// GridCacheTTL bounds how long availability grids are reused. Zero uses a default and a
	// negative value disables caching.
	GridCacheTTL time.Duration
	IDGenerator  func() string
	Now          func() time.Time
	Logger       *slog.Logger
}

// BookingService runs the request lifecycle against stored rooms and requests. Submissions
// and decisions hold the room's lock from the conflict check until the write completes, so
// two overlapping requests cannot both be accepted.
type BookingService struct {
	rooms     RoomRepository
	requests  RequestRepository
	locker    RoomLocker
	audit     *AuditTrail
	lifecycle *booking.Lifecycle
	window    availability.Window
	grids     *gridCache
	logger    *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	window := deps.Window
	if window.Validate() != nil {
		window = availability.DefaultWindow
	}
	return &BookingService{
		rooms:     deps.Rooms,
		requests:  deps.Requests,
		locker:    deps.Locker,
		audit:     deps.Audit,
		lifecycle: booking.NewLifecycle(deps.Engine, idGenerator, now),
		window:    window,
		grids:     newGridCache(deps.GridCacheTTL, 0, now),
		logger:    defaultLogger(deps.Logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	var base *slog.Logger
	if s != nil {
		base = s.logger
	}
	return serviceLogger(ctx, base, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.rooms == nil || s.requests == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// CreateDraft validates and stores a request in Draft status. Drafts hold no occurrences
// and are not checked for conflicts.
func (s *BookingService) CreateDraft(ctx context.Context, params SubmitRequestParams) (req booking.Request, err error) {
	logger := s.loggerWith(ctx, "CreateDraft",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create draft", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", req.ID).InfoContext(ctx, "draft created")
	}()

	if err = s.ready(); err != nil {
		return
	}

	var draft booking.Request
	if draft, err = s.draftFromInput(params); err != nil {
		return
	}

	var room booking.Room
	if room, err = s.getRoom(ctx, draft.RoomID); err != nil {
		return
	}
	if _, err = s.lifecycle.Plan(draft, room); err != nil {
		return
	}

	if err = s.requests.CreateRequest(ctx, draft); err != nil {
		err = mapRepoError(err)
		return
	}

	req = draft
	s.audit.Record(ctx, EntityRequest, req.ID, "request.drafted", params.Principal, describeRequest(req, room))
	return
}

// Submit validates a new request, checks it against the room's blocking occurrences and
// stores it in Submitted status with its materialized occurrences.
func (s *BookingService) Submit(ctx context.Context, params SubmitRequestParams) (req booking.Request, err error) {
	logger := s.loggerWith(ctx, "Submit",
		"principal_id", params.Principal.UserID,
		"room_id", params.Input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", req.ID, "occurrence_count", len(req.Occurrences)).InfoContext(ctx, "request submitted")
	}()

	if err = s.ready(); err != nil {
		return
	}

	var draft booking.Request
	if draft, err = s.draftFromInput(params); err != nil {
		return
	}

	var unlock func()
	if unlock, err = s.lockRoom(ctx, draft.RoomID); err != nil {
		return
	}
	defer unlock()

	var room booking.Room
	if room, err = s.getRoom(ctx, draft.RoomID); err != nil {
		return
	}
	if req, err = s.submit(ctx, draft, room); err != nil {
		return
	}

	if err = s.requests.CreateRequest(ctx, req); err != nil {
		err = mapRepoError(err)
		req = booking.Request{}
		return
	}

	s.grids.InvalidateRoom(room.ID)
	unlock()
	s.audit.Record(ctx, EntityRequest, req.ID, "request.submitted", params.Principal, describeRequest(req, room))
	return
}

// SubmitDraft moves a stored draft into Submitted. Only the requester or an administrator
// may submit it.
func (s *BookingService) SubmitDraft(ctx context.Context, params RequestActionParams) (req booking.Request, err error) {
	logger := s.loggerWith(ctx, "SubmitDraft",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to submit draft", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("occurrence_count", len(req.Occurrences)).InfoContext(ctx, "draft submitted")
	}()

	if err = s.ready(); err != nil {
		return
	}

	var (
		current booking.Request
		unlock  func()
	)
	if current, unlock, err = s.lockRequest(ctx, params.RequestID); err != nil {
		return
	}
	defer unlock()

	if !canAct(params.Principal, current) {
		err = ErrUnauthorized
		return
	}

	var room booking.Room
	if room, err = s.getRoom(ctx, current.RoomID); err != nil {
		return
	}
	if req, err = s.submit(ctx, current, room); err != nil {
		return
	}

	if err = s.requests.UpdateRequest(ctx, req); err != nil {
		err = mapRepoError(err)
		req = booking.Request{}
		return
	}

	s.grids.InvalidateRoom(room.ID)
	unlock()
	s.audit.Record(ctx, EntityRequest, req.ID, "request.submitted", params.Principal, describeRequest(req, room))
	return
}

// Decide approves or rejects a request on behalf of an administrator. Approval re-checks the
// request's occurrences against the room's approved occurrences.
func (s *BookingService) Decide(ctx context.Context, params DecideParams) (req booking.Request, err error) {
	logger := s.loggerWith(ctx, "Decide",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
		"approve", params.Approve,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to decide request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("status", req.Status).InfoContext(ctx, "request decided")
	}()

	if err = s.ready(); err != nil {
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	var (
		current booking.Request
		unlock  func()
	)
	if current, unlock, err = s.lockRequest(ctx, params.RequestID); err != nil {
		return
	}
	defer unlock()

	var existing []booking.Occurrence
	if params.Approve {
		intervals := make([]scheduler.Interval, 0, len(current.Occurrences))
		for _, occ := range current.Occurrences {
			intervals = append(intervals, occ.Interval())
		}
		if existing, err = s.occurrencesAround(ctx, current.RoomID, intervals); err != nil {
			return
		}
	}

	if req, err = s.lifecycle.Decide(current, params.Approve, params.Comment, existing); err != nil {
		return
	}

	if err = s.requests.UpdateRequest(ctx, req); err != nil {
		err = mapRepoError(err)
		req = booking.Request{}
		return
	}

	s.grids.InvalidateRoom(req.RoomID)
	unlock()
	eventType := "request.rejected"
	if params.Approve {
		eventType = "request.approved"
	}
	s.audit.Record(ctx, EntityRequest, req.ID, eventType, params.Principal, req.AdminComment)
	return
}

// Cancel withdraws a request. The requester or an administrator may cancel it; its
// occurrences stop occupying the room.
func (s *BookingService) Cancel(ctx context.Context, params RequestActionParams) (req booking.Request, err error) {
	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", params.Principal.UserID,
		"request_id", params.RequestID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "request cancelled")
	}()

	if err = s.ready(); err != nil {
		return
	}

	var (
		current booking.Request
		unlock  func()
	)
	if current, unlock, err = s.lockRequest(ctx, params.RequestID); err != nil {
		return
	}
	defer unlock()

	if !canAct(params.Principal, current) {
		err = ErrUnauthorized
		return
	}

	if req, err = s.lifecycle.Cancel(current); err != nil {
		return
	}

	if err = s.requests.UpdateRequest(ctx, req); err != nil {
		err = mapRepoError(err)
		req = booking.Request{}
		return
	}

	s.grids.InvalidateRoom(req.RoomID)
	unlock()
	s.audit.Record(ctx, EntityRequest, req.ID, "request.cancelled", params.Principal, string(current.Status))
	return
}

// GetRequest returns one request visible to the principal.
func (s *BookingService) GetRequest(ctx context.Context, params RequestActionParams) (booking.Request, error) {
	if err := s.ready(); err != nil {
		return booking.Request{}, err
	}
	req, err := s.requests.GetRequest(ctx, params.RequestID)
	if err != nil {
		return booking.Request{}, mapRepoError(err)
	}
	if !canAct(params.Principal, req) {
		return booking.Request{}, ErrUnauthorized
	}
	return req, nil
}

// ListRequests returns requests matching params. Non-administrators only see their own.
func (s *BookingService) ListRequests(ctx context.Context, params ListRequestsParams) (requests []booking.Request, err error) {
	logger := s.loggerWith(ctx, "ListRequests",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list requests", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(requests)).DebugContext(ctx, "requests listed")
	}()

	if err = s.ready(); err != nil {
		return
	}
	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	filter := RequestFilter{
		RoomID: strings.TrimSpace(params.RoomID),
		Search: strings.TrimSpace(params.Search),
		SortBy: params.SortBy,
		Desc:   params.Desc,
		Limit:  params.Limit,
	}

	vErr := &ValidationError{}
	if params.Status != "" {
		status, ok := booking.ParseStatus(params.Status)
		if !ok {
			vErr.Add("status", fmt.Sprintf("unknown status %q", params.Status))
		}
		filter.Status = status
	}
	switch filter.SortBy {
	case "":
		filter.SortBy = SortByCreatedAt
	case SortByCreatedAt, SortByModifiedAt, SortByStart:
	default:
		vErr.Add("sort_by", "must be createdAt, modifiedAt or startUtc")
	}
	if params.Limit < 0 {
		vErr.Add("limit", "must not be negative")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if !params.Principal.IsAdmin {
		filter.RequesterID = params.Principal.UserID
	}

	requests, err = s.requests.ListRequests(ctx, filter)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}

// ApprovalQueue returns Submitted requests, oldest first, for administrators.
func (s *BookingService) ApprovalQueue(ctx context.Context, principal Principal) ([]booking.Request, error) {
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return s.ListRequests(ctx, ListRequestsParams{
		Principal: principal,
		Status:    string(booking.StatusSubmitted),
		SortBy:    SortByCreatedAt,
	})
}

// Availability builds the hourly grid of a room for one day.
func (s *BookingService) Availability(ctx context.Context, params AvailabilityParams) (Availability, error) {
	if err := s.ready(); err != nil {
		return Availability{}, err
	}

	policy, err := booking.ParsePolicy(params.Mode)
	if err != nil {
		return Availability{}, newValidationError("mode", "must be strict or pending")
	}
	if params.Day.IsZero() {
		return Availability{}, newValidationError("date", "date is required")
	}

	grid, err := s.grid(ctx, params.RoomID, params.Day, policy, true)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		Grid:      grid,
		WeekStart: timeutil.StartOfWeek(grid.Day),
		WeekDays:  availability.WeekDays(grid.Day),
	}, nil
}

// ValidateSelection checks that the chosen hours are free, form one contiguous block and
// carry a purpose, and returns the interval ready for submission. Pending requests block so
// the selection cannot collide with a request awaiting a decision. The grid is always
// rebuilt from storage.
func (s *BookingService) ValidateSelection(ctx context.Context, params SelectionParams) (scheduler.Interval, error) {
	if err := s.ready(); err != nil {
		return scheduler.Interval{}, err
	}
	if params.Day.IsZero() {
		return scheduler.Interval{}, newValidationError("date", "date is required")
	}

	grid, err := s.grid(ctx, params.RoomID, params.Day, booking.PolicyPendingAware, false)
	if err != nil {
		return scheduler.Interval{}, err
	}

	vErr := &ValidationError{}
	selection := availability.NewSelection(grid.Day)
	seen := make(map[int]struct{}, len(params.Hours))
	for _, hour := range params.Hours {
		if _, dup := seen[hour]; dup {
			continue
		}
		seen[hour] = struct{}{}
		if !selection.Toggle(grid, hour) {
			vErr.Add("hours", fmt.Sprintf("hour %d is not available", hour))
		}
	}
	if vErr.HasErrors() {
		return scheduler.Interval{}, vErr
	}

	interval, err := selection.Interval()
	if err != nil {
		return scheduler.Interval{}, err
	}
	if !availability.CanSubmit(selection.Hours(), params.Purpose) {
		return scheduler.Interval{}, newValidationError("purpose", "purpose is required")
	}
	return interval, nil
}

// grid builds a room's grid for day. Cached grids are served only when cached is set.
func (s *BookingService) grid(ctx context.Context, roomID string, day time.Time, policy booking.Policy, cached bool) (availability.Grid, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return availability.Grid{}, err
	}

	day = timeutil.StartOfDay(day)
	key := gridCacheKey(room.ID, day, policy)
	if cached {
		if grid, ok := s.grids.Get(key); ok {
			return grid, nil
		}
	}

	version := s.grids.Version(room.ID)
	occurrences, err := s.requests.ListRoomOccurrences(ctx, room.ID, day, timeutil.AddDays(day, 1))
	if err != nil {
		return availability.Grid{}, mapRepoError(err)
	}
	grid, err := availability.BuildGrid(room.ID, day, s.window, occurrences, policy)
	if err != nil {
		return availability.Grid{}, err
	}
	s.grids.Store(key, version, grid)
	return grid, nil
}

func (s *BookingService) draftFromInput(params SubmitRequestParams) (booking.Request, error) {
	if params.Principal.UserID == "" {
		return booking.Request{}, ErrUnauthorized
	}

	input := params.Input
	pattern, err := recurrence.ParsePattern(input.Recurrence)
	if err != nil {
		vErr := newValidationError("recurrence_pattern", "must be None, Daily or Weekly")
		vErr.Cause = err
		return booking.Request{}, vErr
	}

	requester := params.Principal.Requester()
	switch {
	case params.Principal.IsAdmin && !input.RequestedBy.IsZero():
		requester = input.RequestedBy
	case strings.TrimSpace(input.RequestedBy.Name) != "":
		requester.Name = input.RequestedBy.Name
	}

	return s.lifecycle.NewDraft(booking.DraftInput{
		RoomID:          input.RoomID,
		RequestedBy:     requester,
		Purpose:         input.Purpose,
		AttendeeCount:   input.AttendeeCount,
		Start:           input.Start,
		End:             input.End,
		Recurrence:      pattern,
		RecurrenceUntil: input.RecurrenceUntil,
	}), nil
}

// submit runs the Submitted transition against a fresh view of the room's occurrences.
// Callers hold the room lock.
func (s *BookingService) submit(ctx context.Context, req booking.Request, room booking.Room) (booking.Request, error) {
	intervals, err := s.lifecycle.Plan(req, room)
	if err != nil {
		return booking.Request{}, err
	}
	existing, err := s.occurrencesAround(ctx, room.ID, intervals)
	if err != nil {
		return booking.Request{}, err
	}
	return s.lifecycle.Submit(req, room, existing)
}

// occurrencesAround loads the room's occurrences within the span of intervals.
func (s *BookingService) occurrencesAround(ctx context.Context, roomID string, intervals []scheduler.Interval) ([]booking.Occurrence, error) {
	if len(intervals) == 0 {
		return nil, nil
	}
	from, to := intervals[0].Start, intervals[0].End
	for _, interval := range intervals[1:] {
		if interval.Start.Before(from) {
			from = interval.Start
		}
		if interval.End.After(to) {
			to = interval.End
		}
	}
	occurrences, err := s.requests.ListRoomOccurrences(ctx, roomID, from, to)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return occurrences, nil
}

func (s *BookingService) getRoom(ctx context.Context, roomID string) (booking.Room, error) {
	if strings.TrimSpace(roomID) == "" {
		return booking.Room{}, newValidationError("room_id", "room is required")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return booking.Room{}, mapRepoError(err)
	}
	return room, nil
}

// lockRoom acquires the room's lock. The returned release is idempotent so callers can free
// the room before their audit record and still defer it for early returns.
func (s *BookingService) lockRoom(ctx context.Context, roomID string) (func(), error) {
	if s.locker == nil || roomID == "" {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, roomID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRoomBusy, err)
	}
	return sync.OnceFunc(unlock), nil
}

// lockRequest loads a request, locks its room and reloads it so the caller acts on the
// state current under the lock.
func (s *BookingService) lockRequest(ctx context.Context, requestID string) (booking.Request, func(), error) {
	req, err := s.requests.GetRequest(ctx, requestID)
	if err != nil {
		return booking.Request{}, nil, mapRepoError(err)
	}
	unlock, err := s.lockRoom(ctx, req.RoomID)
	if err != nil {
		return booking.Request{}, nil, err
	}
	req, err = s.requests.GetRequest(ctx, requestID)
	if err != nil {
		unlock()
		return booking.Request{}, nil, mapRepoError(err)
	}
	return req, unlock, nil
}

func canAct(principal Principal, req booking.Request) bool {
	if principal.IsAdmin {
		return true
	}
	return principal.UserID != "" && req.RequestedBy.ExternalID == principal.UserID
}

func describeRequest(req booking.Request, room booking.Room) string {
	return fmt.Sprintf("%s in %s from %s to %s (%s, %d occurrence(s))",
		req.RequestedBy, room.Code,
		timeutil.FormatTimestamp(req.Start), timeutil.FormatTimestamp(req.End),
		req.Recurrence, len(req.Occurrences))
}
