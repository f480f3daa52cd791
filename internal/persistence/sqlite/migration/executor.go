package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// executor runs migrations and maintains the schema_migrations table.
type executor struct {
	db *sql.DB
}

func (e *executor) initVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return newMigrationError(0, "schema_migrations", "create version table", err)
	}
	return nil
}

// apply runs every statement of m and records it in the same transaction.
func (e *executor) apply(ctx context.Context, m Migration) (err error) {
	started := time.Now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range splitStatements(m.SQL) {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			return newMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1), execErr)
		}
	}

	const insertSQL = `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)`
	if _, execErr := tx.ExecContext(ctx, insertSQL,
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
		m.Checksum,
		time.Since(started).Milliseconds(),
	); execErr != nil {
		return newMigrationError(m.Version, m.FilePath, "record migration", execErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return newMigrationError(m.Version, m.FilePath, "commit transaction", commitErr)
	}
	return nil
}

func (e *executor) applied(ctx context.Context) ([]AppliedMigration, error) {
	const querySQL = `
		SELECT version, applied_at, checksum, execution_time_ms
		FROM schema_migrations
		ORDER BY version ASC`

	rows, err := e.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, newMigrationError(0, "schema_migrations", "list applied", err)
	}
	defer rows.Close()

	var out []AppliedMigration
	for rows.Next() {
		var (
			applied   AppliedMigration
			appliedAt string
			elapsedMs int64
		)
		if err := rows.Scan(&applied.Version, &appliedAt, &applied.Checksum, &elapsedMs); err != nil {
			return nil, newMigrationError(0, "schema_migrations", "scan applied", err)
		}
		applied.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		applied.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		out = append(out, applied)
	}
	if err := rows.Err(); err != nil {
		return nil, newMigrationError(0, "schema_migrations", "iterate applied", err)
	}
	return out, nil
}
