package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager applies the migrations found in a file system to a database.
type Manager struct {
	exec   *executor
	fsys   fs.FS
	dir    string
	logger *slog.Logger
}

// NewManager constructs a Manager reading *.sql files from dir inside fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		exec:   &executor{db: db},
		fsys:   fsys,
		dir:    dir,
		logger: logger.With("component", "migration"),
	}
}

// Run applies every pending migration in version order.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.Info("schema version", "current", status.CurrentVersion, "pending", len(status.Pending))

	for _, migration := range status.Pending {
		m.logger.Info("applying migration", "version", migration.Version, "description", migration.Description)
		if err := m.exec.apply(ctx, migration); err != nil {
			m.logger.Error("migration failed", "version", migration.Version, "error", err)
			return err
		}
	}

	if len(status.Pending) > 0 {
		m.logger.Info("migrations applied", "count", len(status.Pending), "duration", time.Since(started))
	}
	return nil
}

// Status reports applied and pending migrations. Applied files whose
// content changed since they ran are reported as ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.exec.initVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}

	applied, err := m.exec.applied(ctx)
	if err != nil {
		return Status{}, err
	}

	checksums := make(map[int]string, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		checksums[a.Version] = a.Checksum
		if a.Version > status.CurrentVersion {
			status.CurrentVersion = a.Version
		}
	}

	for _, migration := range available {
		sum, ok := checksums[migration.Version]
		if !ok {
			status.Pending = append(status.Pending, migration)
			continue
		}
		if sum != "" && sum != migration.Checksum {
			return Status{}, newMigrationError(migration.Version, migration.FilePath, "verify checksum",
				fmt.Errorf("%w: recorded %s", ErrChecksumMismatch, sum))
		}
	}
	return status, nil
}
