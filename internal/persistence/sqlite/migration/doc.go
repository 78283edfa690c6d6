// Package migration applies versioned SQL schema changes to the room booking database.
//
// Migrations are read from an fs.FS (normally an embed.FS compiled into the binary) and
// must follow the naming convention {version}_{description}.sql, for example
// "001_rooms.sql". Applied versions are tracked in a schema_migrations table so each file
// runs exactly once, inside its own transaction.
//
// Example usage:
//
//	db, err := migration.Open(migration.DefaultSQLiteConfig("data/roombooking.db"))
//	manager := migration.NewManager(migration.NewScanner(schemaFS, "migrations"), migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
