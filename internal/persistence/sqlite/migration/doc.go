// Package migration applies versioned SQL files to a SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (e.g., "001_bookings.sql") and are read from an fs.FS, usually an embedded
// directory. Applied versions are tracked in the schema_migrations table and
// every file runs in its own transaction.
//
// Example usage:
//
//	manager := migration.NewManager(db, migrationsFS, logger)
//	if err := manager.Run(ctx); err != nil {
//		return fmt.Errorf("migrate: %w", err)
//	}
package migration
