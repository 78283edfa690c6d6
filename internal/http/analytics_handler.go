package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/timeutil"
)

type analyticsService interface {
	Summary(ctx context.Context, principal application.Principal) (application.Summary, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.AuditEvent, error)
}

// AnalyticsHandler serves the administrative summary and audit trail.
type AnalyticsHandler struct {
	service   analyticsService
	responder responder
	logger    *slog.Logger
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	base := defaultLogger(logger)
	return &AnalyticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), principal)
	if err != nil {
		handlerLogger(r.Context(), h.logger, "AnalyticsHandler", "Summary", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := summaryDTO{
		TotalRooms:    summary.TotalRooms,
		ActiveRooms:   summary.ActiveRooms,
		RequestCounts: make([]statusCountDTO, 0, len(summary.RequestCounts)),
	}
	for _, c := range summary.RequestCounts {
		dto.RequestCounts = append(dto.RequestCounts, statusCountDTO{Status: string(c.Status), Count: c.Count})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, dto)
}

func (h *AnalyticsHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()
	filter := application.AuditFilter{
		Search:     strings.TrimSpace(query.Get("search")),
		EntityType: strings.TrimSpace(query.Get("entityType")),
		EntityID:   strings.TrimSpace(query.Get("entityId")),
	}

	vErr := &application.ValidationError{}
	if sortBy := strings.TrimSpace(query.Get("sortBy")); sortBy != "" && sortBy != "createdAt" {
		vErr.Add("sortBy", "must be createdAt")
	}
	if raw := strings.TrimSpace(query.Get("desc")); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			vErr.Add("desc", "must be true or false")
		}
		filter.Desc = desc
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			vErr.Add("limit", "must be an integer")
		}
		filter.Limit = limit
	}
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	events, err := h.service.ListEvents(r.Context(), application.ListEventsParams{Principal: principal, Filter: filter})
	if err != nil {
		handlerLogger(r.Context(), h.logger, "AnalyticsHandler", "Events", "principal_id", principal.UserID).
			ErrorContext(r.Context(), "event listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]auditEventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventDTO{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			EventType:  e.EventType,
			Actor:      e.Actor,
			Details:    e.Details,
			CreatedAt:  timeutil.FormatTimestamp(e.CreatedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEventsResponse{Events: out})
}

type statusCountDTO struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type summaryDTO struct {
	TotalRooms    int              `json:"totalRooms"`
	ActiveRooms   int              `json:"activeRooms"`
	RequestCounts []statusCountDTO `json:"requestCounts"`
}

type auditEventDTO struct {
	ID         string `json:"id"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	EventType  string `json:"eventType"`
	Actor      string `json:"actor"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"createdAtUtc"`
}

type listEventsResponse struct {
	Events []auditEventDTO `json:"events"`
}
