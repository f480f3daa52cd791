package sqlite

import (
	"context"
	"embed"
	"log/slog"
	"strings"
	"time"

	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store is a persistence.Store backed by a SQLite database file.
type Store struct {
	*BookingRepository
	*EngineerRepository
	*UserRepository
	*WorkReportRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by cfg. Call Migrate before use.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(cfg)
	if err != nil {
		return nil, err
	}
	base := repository{
		pool:  pool,
		retry: NewRetryHelper(DefaultRetryConfig()),
		now:   time.Now,
	}
	return &Store{
		BookingRepository:    &BookingRepository{base},
		EngineerRepository:   &EngineerRepository{base},
		UserRepository:       &UserRepository{base},
		WorkReportRepository: &WorkReportRepository{base},
		pool:                 pool,
		logger:               logger,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return migration.NewManager(s.pool.DB(), migrationFiles, "migrations", s.logger).Run(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// repository holds what every SQLite repository shares.
type repository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper ErrorMapper
	now    func() time.Time
}

func (r repository) timestamp() int64 {
	return r.now().UTC().Unix()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(value string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
