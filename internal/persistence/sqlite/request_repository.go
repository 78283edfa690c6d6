package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RequestRepository implements persistence.RequestRepository using SQLite
type RequestRepository struct {
	pool *ConnectionPool
}

// NewRequestRepository creates a new SQLite request repository
func NewRequestRepository(pool *ConnectionPool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

const requestColumns = `r.id, r.room_id, r.requester_name, r.requester_id, r.purpose, r.attendee_count,
	r.start_utc, r.end_utc, r.recurrence_pattern, r.recurrence_until_utc, r.status, r.admin_comment,
	r.created_at, r.modified_at`

const occurrenceColumns = `id, request_id, room_id, start_utc, end_utc, status, created_at`

var requestSortColumns = map[string]string{
	persistence.SortByCreatedAt:  "r.created_at",
	persistence.SortByModifiedAt: "r.modified_at",
	persistence.SortByStart:      "r.start_utc",
}

// CreateRequest inserts the request row and its occurrences in one transaction.
func (r *RequestRepository) CreateRequest(ctx context.Context, request persistence.Request) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_requests (
				id, room_id, requester_name, requester_id, purpose, attendee_count,
				start_utc, end_utc, recurrence_pattern, recurrence_until_utc, status, admin_comment,
				created_at, modified_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			request.ID,
			request.RoomID,
			request.RequesterName,
			request.RequesterID,
			request.Purpose,
			request.AttendeeCount,
			formatTime(request.StartUTC),
			formatTime(request.EndUTC),
			request.RecurrencePattern,
			nullableTime(request.RecurrenceUntil),
			request.Status,
			request.AdminComment,
			formatTime(request.CreatedAt),
			formatTime(request.ModifiedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertOccurrences(ctx, tx, request.Occurrences)
	})
}

// UpdateRequest rewrites the request row and replaces its occurrences atomically.
func (r *RequestRepository) UpdateRequest(ctx context.Context, request persistence.Request) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE booking_requests
			SET room_id = ?, requester_name = ?, requester_id = ?, purpose = ?, attendee_count = ?,
				start_utc = ?, end_utc = ?, recurrence_pattern = ?, recurrence_until_utc = ?,
				status = ?, admin_comment = ?, modified_at = ?
			WHERE id = ?
		`,
			request.RoomID,
			request.RequesterName,
			request.RequesterID,
			request.Purpose,
			request.AttendeeCount,
			formatTime(request.StartUTC),
			formatTime(request.EndUTC),
			request.RecurrencePattern,
			nullableTime(request.RecurrenceUntil),
			request.Status,
			request.AdminComment,
			formatTime(request.ModifiedAt),
			request.ID,
		)
		if err != nil {
			return mapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_occurrences WHERE request_id = ?`, request.ID); err != nil {
			return mapError(err)
		}
		return insertOccurrences(ctx, tx, request.Occurrences)
	})
}

// GetRequest retrieves a request and its occurrences.
func (r *RequestRepository) GetRequest(ctx context.Context, id string) (persistence.Request, error) {
	if id == "" {
		return persistence.Request{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx, `SELECT `+requestColumns+` FROM booking_requests r WHERE r.id = ?`, id)
	request, err := scanRequest(row)
	if err != nil {
		return persistence.Request{}, mapError(err)
	}

	if request.Occurrences, err = r.requestOccurrences(ctx, id); err != nil {
		return persistence.Request{}, err
	}
	return request, nil
}

// ListRequests returns requests matching filter, each with its occurrences.
func (r *RequestRepository) ListRequests(ctx context.Context, filter persistence.RequestFilter) ([]persistence.Request, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		conditions = append(conditions, "r.status = ?")
		args = append(args, filter.Status)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "r.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "r.requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		conditions = append(conditions, `(
			LOWER(r.purpose) LIKE ? OR LOWER(r.requester_name) LIKE ? OR LOWER(r.requester_id) LIKE ?
			OR LOWER(rm.code) LIKE ? OR LOWER(rm.name) LIKE ?
		)`)
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	query := `SELECT ` + requestColumns + ` FROM booking_requests r JOIN rooms rm ON rm.id = r.room_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	column, ok := requestSortColumns[filter.SortBy]
	if !ok {
		column = requestSortColumns[persistence.SortByCreatedAt]
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, r.id %s", column, direction, direction)
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}

	var requests []persistence.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapError(err)
	}
	rows.Close()

	for i := range requests {
		if requests[i].Occurrences, err = r.requestOccurrences(ctx, requests[i].ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// ListRoomOccurrences returns the room's occurrences overlapping [from, to). A zero bound is
// treated as unbounded on that side.
func (r *RequestRepository) ListRoomOccurrences(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM booking_occurrences WHERE room_id = ?`
	args := []any{roomID}
	if !to.IsZero() {
		query += " AND start_utc < ?"
		args = append(args, formatTime(to))
	}
	if !from.IsZero() {
		query += " AND end_utc > ?"
		args = append(args, formatTime(from))
	}
	query += " ORDER BY start_utc ASC, id ASC"

	return r.queryOccurrences(ctx, query, args...)
}

// CountRequestsByStatus returns the number of requests per status, ordered by status.
func (r *RequestRepository) CountRequestsByStatus(ctx context.Context) ([]persistence.StatusCount, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		`SELECT status, COUNT(*) FROM booking_requests GROUP BY status ORDER BY status ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var counts []persistence.StatusCount
	for rows.Next() {
		var count persistence.StatusCount
		if err := rows.Scan(&count.Status, &count.Count); err != nil {
			return nil, mapError(err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}

func (r *RequestRepository) requestOccurrences(ctx context.Context, requestID string) ([]persistence.Occurrence, error) {
	return r.queryOccurrences(ctx,
		`SELECT `+occurrenceColumns+` FROM booking_occurrences WHERE request_id = ? ORDER BY start_utc ASC, id ASC`,
		requestID)
}

func (r *RequestRepository) queryOccurrences(ctx context.Context, query string, args ...any) ([]persistence.Occurrence, error) {
	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var occurrences []persistence.Occurrence
	for rows.Next() {
		var (
			occ                      persistence.Occurrence
			start, end, createdAtStr string
		)
		if err := rows.Scan(&occ.ID, &occ.RequestID, &occ.RoomID, &start, &end, &occ.Status, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		if occ.StartUTC, err = parseTime("start_utc", start); err != nil {
			return nil, err
		}
		if occ.EndUTC, err = parseTime("end_utc", end); err != nil {
			return nil, err
		}
		if occ.CreatedAt, err = parseTime("created_at", createdAtStr); err != nil {
			return nil, err
		}
		occurrences = append(occurrences, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return occurrences, nil
}

func insertOccurrences(ctx context.Context, tx *sql.Tx, occurrences []persistence.Occurrence) error {
	if len(occurrences) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO booking_occurrences (`+occurrenceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return mapError(err)
	}
	defer stmt.Close()

	for _, occ := range occurrences {
		if _, err := stmt.ExecContext(ctx,
			occ.ID,
			occ.RequestID,
			occ.RoomID,
			formatTime(occ.StartUTC),
			formatTime(occ.EndUTC),
			occ.Status,
			formatTime(occ.CreatedAt),
		); err != nil {
			return mapError(err)
		}
	}
	return nil
}

func scanRequest(row rowScanner) (persistence.Request, error) {
	var (
		request                         persistence.Request
		start, end, createdAt, modified string
		until                           sql.NullString
	)
	if err := row.Scan(
		&request.ID,
		&request.RoomID,
		&request.RequesterName,
		&request.RequesterID,
		&request.Purpose,
		&request.AttendeeCount,
		&start,
		&end,
		&request.RecurrencePattern,
		&until,
		&request.Status,
		&request.AdminComment,
		&createdAt,
		&modified,
	); err != nil {
		return persistence.Request{}, err
	}

	var err error
	if request.StartUTC, err = parseTime("start_utc", start); err != nil {
		return persistence.Request{}, err
	}
	if request.EndUTC, err = parseTime("end_utc", end); err != nil {
		return persistence.Request{}, err
	}
	if request.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Request{}, err
	}
	if request.ModifiedAt, err = parseTime("modified_at", modified); err != nil {
		return persistence.Request{}, err
	}
	if until.Valid {
		t, err := parseTime("recurrence_until_utc", until.String)
		if err != nil {
			return persistence.Request{}, err
		}
		request.RecurrenceUntil = &t
	}
	return request, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
