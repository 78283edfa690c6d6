package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// Store bundles the SQLite repositories over one connection pool.
type Store struct {
	*RoomRepository
	*RequestRepository
	*AuditRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

// Open opens the database at path with the production settings.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	return OpenWithConfig(ctx, migration.DefaultSQLiteConfig(path), logger)
}

// OpenWithConfig opens the database described by config.
func OpenWithConfig(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		RoomRepository:    NewRoomRepository(pool),
		RequestRepository: NewRequestRepository(pool),
		AuditRepository:   NewAuditRepository(pool),
		pool:              pool,
		logger:            logger,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool, s.logger)
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
