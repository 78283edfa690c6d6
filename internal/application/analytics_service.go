package application

import (
	"context"
	"fmt"
	"log/slog"
)

// StatsRepository exposes the aggregate counts behind the analytics summary.
type StatsRepository interface {
	CountRooms(ctx context.Context) (total, active int, err error)
	CountRequestsByStatus(ctx context.Context) ([]StatusCount, error)
}

// AnalyticsService serves the administrative summary and the audit trail.
type AnalyticsService struct {
	stats  StatsRepository
	audit  AuditRepository
	logger *slog.Logger
}

// NewAnalyticsServiceWithLogger constructs an analytics service.
func NewAnalyticsServiceWithLogger(stats StatsRepository, audit AuditRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{stats: stats, audit: audit, logger: defaultLogger(logger)}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// Summary returns room totals and per-status request counts for administrators.
func (s *AnalyticsService) Summary(ctx context.Context, principal Principal) (summary Summary, err error) {
	if s == nil || s.stats == nil {
		err = fmt.Errorf("analytics repository not configured")
		return
	}
	if !principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "Summary", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build summary", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if summary.TotalRooms, summary.ActiveRooms, err = s.stats.CountRooms(ctx); err != nil {
		err = mapRepoError(err)
		return
	}
	if summary.RequestCounts, err = s.stats.CountRequestsByStatus(ctx); err != nil {
		err = mapRepoError(err)
		return
	}
	return
}

// ListEvents returns audit events for administrators.
func (s *AnalyticsService) ListEvents(ctx context.Context, params ListEventsParams) (events []AuditEvent, err error) {
	if s == nil || s.audit == nil {
		err = fmt.Errorf("audit repository not configured")
		return
	}
	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	logger := s.loggerWith(ctx, "ListEvents", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list audit events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(events)).DebugContext(ctx, "audit events listed")
	}()

	if params.Filter.Limit < 0 {
		err = newValidationError("limit", "must not be negative")
		return
	}

	events, err = s.audit.ListEvents(ctx, params.Filter)
	if err != nil {
		err = mapRepoError(err)
	}
	return
}
