package sqlite

import (
	"context"
	"embed"
	"log/slog"

	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// Migrate brings the database schema up to date with the embedded migrations.
func Migrate(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewScanner(schemaFS, "migrations"),
		migration.NewSQLiteExecutor(pool.DB()),
		logger,
	)
	return manager.RunMigrations(ctx)
}
