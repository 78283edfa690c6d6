package sqlite

import (
	"context"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository using SQLite
type AuditRepository struct {
	pool *ConnectionPool
}

// NewAuditRepository creates a new SQLite audit repository
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendEvent records an audit event.
func (r *AuditRepository) AppendEvent(ctx context.Context, event persistence.AuditEvent) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO audit_events (id, entity_type, entity_id, event_type, actor, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.EntityType,
		event.EntityID,
		event.EventType,
		event.Actor,
		event.Details,
		formatTime(event.CreatedAt),
	)
	return mapError(err)
}

// ListEvents returns audit events ordered by creation time.
func (r *AuditRepository) ListEvents(ctx context.Context, filter persistence.AuditFilter) ([]persistence.AuditEvent, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.EntityType != "" {
		conditions = append(conditions, "entity_type = ?")
		args = append(args, filter.EntityType)
	}
	if filter.EntityID != "" {
		conditions = append(conditions, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		conditions = append(conditions, "(LOWER(event_type) LIKE ? OR LOWER(actor) LIKE ? OR LOWER(details) LIKE ? OR LOWER(entity_id) LIKE ?)")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := `SELECT id, entity_type, entity_id, event_type, actor, details, created_at FROM audit_events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.Desc {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.AuditEvent
	for rows.Next() {
		var event persistence.AuditEvent
		var createdAt string
		if err := rows.Scan(
			&event.ID,
			&event.EntityType,
			&event.EntityID,
			&event.EventType,
			&event.Actor,
			&event.Details,
			&createdAt,
		); err != nil {
			return nil, mapError(err)
		}
		if event.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}
