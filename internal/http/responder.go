package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/timeutil"
)

var (
	errBadRequestBody = errors.New("request body is not valid JSON")
	errMissingActor   = errors.New("X-Actor-ID header is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	case errors.Is(err, application.ErrNotFound), errors.Is(err, booking.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: "resource not found"})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: "resource already exists"})
		return
	case errors.Is(err, application.ErrRoomBusy):
		w.Header().Set("Retry-After", "1")
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{ErrorCode: "ROOM_BUSY", Message: "room is busy, retry shortly"})
		return
	}

	var cErr *booking.ConflictError
	if errors.As(err, &cErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "CONFLICT",
			Message:   "the requested time overlaps existing bookings",
			Conflicts: toConflictDTOs(cErr),
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		code := "VALIDATION"
		if errors.Is(err, booking.ErrInvalidTransition) {
			code = "INVALID_TRANSITION"
		}
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: code,
			Message:   "request validation failed",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

// writeDecodeError answers a decodeJSON failure: 400 for malformed JSON, 422 for failed
// field validation.
func (r responder) writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequestBody) {
		r.writeError(ctx, w, http.StatusBadRequest, err)
		return
	}
	r.handleServiceError(ctx, w, err)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	CandidateStart string `json:"candidateStartUtc"`
	CandidateEnd   string `json:"candidateEndUtc"`
	OccurrenceID   string `json:"occurrenceId"`
	RequestID      string `json:"requestId"`
	Start          string `json:"startUtc"`
	End            string `json:"endUtc"`
}

func toConflictDTOs(cErr *booking.ConflictError) []conflictDTO {
	out := make([]conflictDTO, 0, len(cErr.Conflicts))
	for _, c := range cErr.Conflicts {
		out = append(out, conflictDTO{
			CandidateStart: timeutil.FormatTimestamp(c.Candidate.Start),
			CandidateEnd:   timeutil.FormatTimestamp(c.Candidate.End),
			OccurrenceID:   c.WithOccurrenceID,
			RequestID:      c.WithRequestID,
			Start:          timeutil.FormatTimestamp(c.ConflictingPeriod.Start),
			End:            timeutil.FormatTimestamp(c.ConflictingPeriod.End),
		})
	}
	return out
}
