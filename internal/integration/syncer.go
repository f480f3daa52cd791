package integration

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/logging"
	"github.com/example/erm/internal/persistence"
)

// Upserter records one synced task.
type Upserter interface {
	SyncUpsert(ctx context.Context, task application.SyncedBooking) (application.SyncOutcome, error)
}

// EngineerSource lists the engineers to synchronize.
type EngineerSource interface {
	ListEngineers(ctx context.Context) ([]persistence.Engineer, error)
}

// Summary is the outcome of one system's pass.
type Summary struct {
	System   string
	Fetched  int
	Inserted int
	Updated  int
	Failed   int
	Err      error
}

func (s Summary) String() string {
	line := fmt.Sprintf("%s: fetched=%d inserted=%d updated=%d failed=%d", s.System, s.Fetched, s.Inserted, s.Updated, s.Failed)
	if s.Err != nil {
		line += " error=" + s.Err.Error()
	}
	return line
}

// Syncer runs a synchronization pass over every configured system.
type Syncer struct {
	systems     []System
	engineers   EngineerSource
	upserter    Upserter
	concurrency int
	logger      *slog.Logger
}

// NewSyncer wires a syncer. Systems run concurrently, up to concurrency at
// a time; zero or less runs them one by one.
func NewSyncer(systems []System, engineers EngineerSource, upserter Upserter, concurrency int, logger *slog.Logger) *Syncer {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{systems: systems, engineers: engineers, upserter: upserter, concurrency: concurrency, logger: logger}
}

// Run synchronizes every system and returns one summary per system in
// configuration order. A failing system is reported in its summary and
// does not stop the others. Run itself fails when engineers cannot be
// listed or when ctx ends before every system has started.
func (s *Syncer) Run(ctx context.Context) ([]Summary, error) {
	engineers, err := s.engineers.ListEngineers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list engineers: %w", err)
	}

	summaries := make([]Summary, len(s.systems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, system := range s.systems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				summaries[i] = Summary{System: system.Name(), Err: err}
				return err
			}
			summaries[i] = s.runSystem(gctx, system, engineers)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaries, err
	}
	return summaries, nil
}

func (s *Syncer) runSystem(ctx context.Context, system System, engineers []persistence.Engineer) Summary {
	summary := Summary{System: system.Name()}
	logger := logging.Default(ctx, s.logger).With("component", "sync", "system", system.Name())

	if err := system.Connect(ctx); err != nil {
		summary.Err = err
		logger.ErrorContext(ctx, "connect failed", "error", err)
		return summary
	}

	for _, engineer := range engineers {
		if !engineer.Active {
			continue
		}
		if _, ok := system.AddEngineerLogin(engineer); !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			summary.Err = err
			return summary
		}

		raw, err := system.RawEntries(ctx, engineer)
		if err != nil {
			summary.Failed++
			logger.WarnContext(ctx, "fetch failed", "login", engineer.Login, "error", err)
			continue
		}
		summary.Fetched += len(raw)

		for _, task := range system.Preprocess(raw, engineer.Login) {
			outcome, err := s.upserter.SyncUpsert(ctx, task)
			switch {
			case err != nil:
				summary.Failed++
				logger.WarnContext(ctx, "upsert failed", "login", engineer.Login, "project_id", task.ProjectID, "error", err)
			case outcome == application.SyncInserted:
				summary.Inserted++
			case outcome == application.SyncUpdated:
				summary.Updated++
			}
		}
	}

	logger.InfoContext(ctx, "system synchronized",
		"fetched", summary.Fetched, "inserted", summary.Inserted, "updated", summary.Updated, "failed", summary.Failed)
	return summary
}
