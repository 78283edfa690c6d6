package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/scheduler"
	"github.com/example/room-booking/internal/timeutil"
)

type bookingService interface {
	CreateDraft(ctx context.Context, params application.SubmitRequestParams) (booking.Request, error)
	Submit(ctx context.Context, params application.SubmitRequestParams) (booking.Request, error)
	SubmitDraft(ctx context.Context, params application.RequestActionParams) (booking.Request, error)
	Decide(ctx context.Context, params application.DecideParams) (booking.Request, error)
	Cancel(ctx context.Context, params application.RequestActionParams) (booking.Request, error)
	GetRequest(ctx context.Context, params application.RequestActionParams) (booking.Request, error)
	ListRequests(ctx context.Context, params application.ListRequestsParams) ([]booking.Request, error)
	ApprovalQueue(ctx context.Context, principal application.Principal) ([]booking.Request, error)
	Availability(ctx context.Context, params application.AvailabilityParams) (application.Availability, error)
	ValidateSelection(ctx context.Context, params application.SelectionParams) (scheduler.Interval, error)
}

// RequestHandler serves booking requests, approvals and room availability.
type RequestHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewRequestHandler(service bookingService, logger *slog.Logger) *RequestHandler {
	base := defaultLogger(logger)
	return &RequestHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RequestHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "RequestHandler", operation, attrs...)
}

func (h *RequestHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

// Submit creates a request and submits it in one step.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "Submit", h.service.Submit)
}

// CreateDraft stores a request without submitting it.
func (h *RequestHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "CreateDraft", h.service.CreateDraft)
}

func (h *RequestHandler) create(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, application.SubmitRequestParams) (booking.Request, error)) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(r.Context(), "invalid booking payload", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	created, err := fn(r.Context(), application.SubmitRequestParams{Principal: principal, Input: input})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("request_id", created.ID, "status", created.Status).InfoContext(r.Context(), "booking request stored")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, requestResponse{Request: toRequestDTO(created)})
}

// SubmitDraft submits a stored draft.
func (h *RequestHandler) SubmitDraft(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "SubmitDraft", h.service.SubmitDraft)
}

// Cancel withdraws a request.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Cancel", h.service.Cancel)
}

// Get returns one request.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "Get", h.service.GetRequest)
}

func (h *RequestHandler) act(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, application.RequestActionParams) (booking.Request, error)) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	requestID := r.PathValue("id")
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "request_id", requestID)

	req, err := fn(r.Context(), application.RequestActionParams{Principal: principal, RequestID: requestID})
	if err != nil {
		logger.ErrorContext(r.Context(), "request action failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, requestResponse{Request: toRequestDTO(req)})
}

// Decide approves or rejects a request.
func (h *RequestHandler) Decide(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	requestID := r.PathValue("id")
	logger := h.log(r.Context(), "Decide", "principal_id", principal.UserID, "request_id", requestID)

	var req decideRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(r.Context(), "invalid decision payload", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}

	decided, err := h.service.Decide(r.Context(), application.DecideParams{
		Principal: principal,
		RequestID: requestID,
		Approve:   *req.IsApproved,
		Comment:   req.Comment,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, requestResponse{Request: toRequestDTO(decided)})
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildListParams(r, principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	requests, err := h.service.ListRequests(r.Context(), params)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).ErrorContext(r.Context(), "request list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRequestsResponse{Requests: toRequestDTOs(requests)})
}

// Queue lists requests awaiting a decision, oldest first.
func (h *RequestHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	requests, err := h.service.ApprovalQueue(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Queue", "principal_id", principal.UserID).ErrorContext(r.Context(), "approval queue failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRequestsResponse{Requests: toRequestDTOs(requests)})
}

// Availability returns the hourly grid of a room for one day.
func (h *RequestHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	query := r.URL.Query()
	day, err := timeutil.ParseDay(query.Get("date"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, booking.NewValidationError("date", "must be a YYYY-MM-DD date"))
		return
	}

	result, err := h.service.Availability(r.Context(), application.AvailabilityParams{
		RoomID: r.PathValue("id"),
		Day:    day,
		Mode:   query.Get("mode"),
	})
	if err != nil {
		h.log(r.Context(), "Availability", "room_id", r.PathValue("id")).ErrorContext(r.Context(), "availability failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAvailabilityDTO(result))
}

// ValidateSelection checks picked hours and returns the interval to submit.
func (h *RequestHandler) ValidateSelection(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}

	var req selectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	day, err := timeutil.ParseDay(req.Date)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, booking.NewValidationError("date", "must be a YYYY-MM-DD date"))
		return
	}

	interval, err := h.service.ValidateSelection(r.Context(), application.SelectionParams{
		RoomID:  r.PathValue("id"),
		Day:     day,
		Hours:   req.Hours,
		Purpose: req.Purpose,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, intervalDTO{
		Start: timeutil.FormatTimestamp(interval.Start),
		End:   timeutil.FormatTimestamp(interval.End),
	})
}

func buildListParams(r *http.Request, principal application.Principal) (application.ListRequestsParams, error) {
	query := r.URL.Query()
	params := application.ListRequestsParams{
		Principal: principal,
		Status:    strings.TrimSpace(query.Get("status")),
		RoomID:    strings.TrimSpace(query.Get("roomId")),
		Search:    strings.TrimSpace(query.Get("search")),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
	}

	vErr := &application.ValidationError{}
	if raw := strings.TrimSpace(query.Get("desc")); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			vErr.Add("desc", "must be true or false")
		}
		params.Desc = desc
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			vErr.Add("limit", "must be an integer")
		}
		params.Limit = limit
	}
	if vErr.HasErrors() {
		return application.ListRequestsParams{}, vErr
	}
	return params, nil
}

// requesterField accepts either a {"name","externalId"} object or the legacy "Name (ID)"
// string.
type requesterField struct {
	booking.Requester
}

func (f *requesterField) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		f.Requester = booking.ParseRequester(legacy)
		return nil
	}
	var structured requesterDTO
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	f.Requester = booking.Requester{Name: structured.Name, ExternalID: structured.ExternalID}
	return nil
}

type bookingRequest struct {
	RoomID             string          `json:"roomId" validate:"required"`
	RequestedBy        *requesterField `json:"requestedBy"`
	Purpose            string          `json:"purpose" validate:"required,max=500"`
	AttendeeCount      int             `json:"attendeeCount" validate:"gt=0"`
	StartUTC           string          `json:"startUtc" validate:"required"`
	EndUTC             string          `json:"endUtc" validate:"required"`
	RecurrencePattern  string          `json:"recurrencePattern"`
	RecurrenceUntilUTC *string         `json:"recurrenceUntilUtc"`
}

func (r bookingRequest) toInput() (application.RequestInput, error) {
	input := application.RequestInput{
		RoomID:        strings.TrimSpace(r.RoomID),
		Purpose:       r.Purpose,
		AttendeeCount: r.AttendeeCount,
	}
	if r.RequestedBy != nil {
		input.RequestedBy = r.RequestedBy.Requester
	}

	vErr := &application.ValidationError{}
	if pattern, err := recurrence.ParsePattern(r.RecurrencePattern); err != nil {
		vErr.Add("recurrencePattern", "must be None, Daily or Weekly")
	} else {
		input.Recurrence = string(pattern)
	}
	var err error
	if input.Start, err = timeutil.ParseTimestamp(r.StartUTC); err != nil {
		vErr.Add("startUtc", "must be an ISO-8601 timestamp")
	}
	if input.End, err = timeutil.ParseTimestamp(r.EndUTC); err != nil {
		vErr.Add("endUtc", "must be an ISO-8601 timestamp")
	}
	if r.RecurrenceUntilUTC != nil && strings.TrimSpace(*r.RecurrenceUntilUTC) != "" {
		until, err := timeutil.ParseTimestamp(*r.RecurrenceUntilUTC)
		if err != nil {
			vErr.Add("recurrenceUntilUtc", "must be an ISO-8601 timestamp")
		} else {
			input.RecurrenceUntil = &until
		}
	}
	if vErr.HasErrors() {
		return application.RequestInput{}, vErr
	}
	return input, nil
}

type decideRequest struct {
	IsApproved *bool  `json:"isApproved" validate:"required"`
	Comment    string `json:"comment" validate:"max=1000"`
}

type selectionRequest struct {
	Date    string `json:"date" validate:"required"`
	Hours   []int  `json:"hours" validate:"required,min=1,dive,min=0,max=23"`
	Purpose string `json:"purpose"`
}

type requesterDTO struct {
	Name       string `json:"name"`
	ExternalID string `json:"externalId,omitempty"`
}

type occurrenceDTO struct {
	ID     string `json:"id"`
	Start  string `json:"startUtc"`
	End    string `json:"endUtc"`
	Status string `json:"status"`
}

type requestDTO struct {
	ID                 string          `json:"id"`
	RoomID             string          `json:"roomId"`
	RequestedBy        requesterDTO    `json:"requestedBy"`
	Purpose            string          `json:"purpose"`
	AttendeeCount      int             `json:"attendeeCount"`
	Start              string          `json:"startUtc"`
	End                string          `json:"endUtc"`
	RecurrencePattern  string          `json:"recurrencePattern"`
	RecurrenceUntilUTC *string         `json:"recurrenceUntilUtc,omitempty"`
	Status             string          `json:"status"`
	AdminComment       string          `json:"adminComment,omitempty"`
	CreatedAt          string          `json:"createdAtUtc"`
	ModifiedAt         string          `json:"modifiedAtUtc"`
	Occurrences        []occurrenceDTO `json:"occurrences"`
}

type requestResponse struct {
	Request requestDTO `json:"request"`
}

type listRequestsResponse struct {
	Requests []requestDTO `json:"requests"`
}

func toRequestDTO(req booking.Request) requestDTO {
	dto := requestDTO{
		ID:                req.ID,
		RoomID:            req.RoomID,
		RequestedBy:       requesterDTO{Name: req.RequestedBy.Name, ExternalID: req.RequestedBy.ExternalID},
		Purpose:           req.Purpose,
		AttendeeCount:     req.AttendeeCount,
		Start:             timeutil.FormatTimestamp(req.Start),
		End:               timeutil.FormatTimestamp(req.End),
		RecurrencePattern: string(req.Recurrence),
		Status:            string(req.Status),
		AdminComment:      req.AdminComment,
		CreatedAt:         timeutil.FormatTimestamp(req.CreatedAt),
		ModifiedAt:        timeutil.FormatTimestamp(req.ModifiedAt),
		Occurrences:       make([]occurrenceDTO, 0, len(req.Occurrences)),
	}
	if req.RecurrenceUntil != nil {
		until := timeutil.FormatTimestamp(*req.RecurrenceUntil)
		dto.RecurrenceUntilUTC = &until
	}
	for _, occ := range req.Occurrences {
		dto.Occurrences = append(dto.Occurrences, occurrenceDTO{
			ID:     occ.ID,
			Start:  timeutil.FormatTimestamp(occ.Start),
			End:    timeutil.FormatTimestamp(occ.End),
			Status: string(occ.Status),
		})
	}
	return dto
}

func toRequestDTOs(requests []booking.Request) []requestDTO {
	out := make([]requestDTO, 0, len(requests))
	for _, req := range requests {
		out = append(out, toRequestDTO(req))
	}
	return out
}

type slotDTO struct {
	Hour  int    `json:"hour"`
	State string `json:"state"`
}

type availabilityDTO struct {
	RoomID    string    `json:"roomId"`
	Date      string    `json:"date"`
	Mode      string    `json:"mode"`
	WeekStart string    `json:"weekStart"`
	WeekDays  []string  `json:"weekDays"`
	Slots     []slotDTO `json:"slots"`
}

type intervalDTO struct {
	Start string `json:"startUtc"`
	End   string `json:"endUtc"`
}

func toAvailabilityDTO(a application.Availability) availabilityDTO {
	dto := availabilityDTO{
		RoomID:    a.Grid.RoomID,
		Date:      a.Grid.Day.Format(time.DateOnly),
		Mode:      a.Grid.Policy.String(),
		WeekStart: a.WeekStart.Format(time.DateOnly),
		WeekDays:  make([]string, 0, len(a.WeekDays)),
		Slots:     make([]slotDTO, 0, len(a.Grid.Slots)),
	}
	for _, day := range a.WeekDays {
		dto.WeekDays = append(dto.WeekDays, day.Format(time.DateOnly))
	}
	for _, slot := range a.Grid.Slots {
		dto.Slots = append(dto.Slots, slotDTO{Hour: slot.Hour, State: string(slot.State)})
	}
	return dto
}
