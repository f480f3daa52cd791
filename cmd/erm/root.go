package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/erm/internal/application"
	"github.com/example/erm/internal/config"
	"github.com/example/erm/internal/integration"
	"github.com/example/erm/internal/logging"
	"github.com/example/erm/internal/notify"
	"github.com/example/erm/internal/persistence"
	"github.com/example/erm/internal/persistence/memory"
	"github.com/example/erm/internal/persistence/postgres"
	"github.com/example/erm/internal/persistence/sqlite"
	"github.com/example/erm/internal/report"
)

// syncConcurrency caps how many external systems are polled at once.
const syncConcurrency = 2

type globalFlags struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "erm",
		Short:         "Field engineer booking and work report service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override ERM_LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newSyncCmd(flags))
	root.AddCommand(newExpandCmd())
	root.AddCommand(newWorkloadCmd(flags))
	root.AddCommand(newUserCmd(flags))

	return root
}

// runtime is what every command that touches the store shares.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  persistence.Store
}

// loadRuntime reads the configuration, builds the logger writing to logs and
// opens the migrated store. The caller closes the store.
func loadRuntime(ctx context.Context, flags *globalFlags, logs io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		level, err := config.ParseLevel(flags.logLevel)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}
	logger := logging.New(logs, cfg.LogLevel)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &runtime{cfg: cfg, logger: logger, store: store}, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(ctx, cfg.DBDSN)
	case "memory":
		return memory.New(nil), nil
	default:
		return sqlite.Open(sqlite.Config{DSN: cfg.DBDSN}, logger)
	}
}

func (rt *runtime) close() {
	if err := rt.store.Close(); err != nil {
		rt.logger.Error("failed to close storage", "error", err)
	}
}

func (rt *runtime) httpClient() *http.Client {
	return &http.Client{Timeout: rt.cfg.HTTPClientTimeout}
}

func (rt *runtime) notifier() application.Notifier {
	if !rt.cfg.SMS.Enabled() {
		return notify.Noop{}
	}
	return notify.NewSMS(rt.cfg.SMS, rt.httpClient(), rt.logger)
}

type services struct {
	auth      *application.AuthService
	users     *application.UserService
	engineers *application.EngineerService
	bookings  *application.BookingService
	reports   *application.WorkReportService
}

func (rt *runtime) services() services {
	policy := report.Policy{HourLimits: rt.cfg.HourLimits, PremadeCategories: rt.cfg.PremadeCategories}
	store := rt.store
	return services{
		auth:      application.NewAuthServiceWithLogger(store, application.VerifyPassword, nil, rt.logger),
		users:     application.NewUserServiceWithLogger(store, application.HashPassword, rt.logger),
		engineers: application.NewEngineerServiceWithLogger(store, rt.logger),
		bookings:  application.NewBookingServiceWithLogger(store, store, rt.notifier(), uuid.NewString, nil, rt.logger),
		reports:   application.NewWorkReportServiceWithLogger(store, store, store, policy, rt.logger),
	}
}

// syncer builds the synchronizer described by ERM_SYNC_CONFIG.
func (rt *runtime) syncer(bookings *application.BookingService) (*integration.Syncer, error) {
	if rt.cfg.SyncConfigPath == "" {
		return nil, fmt.Errorf("ERM_SYNC_CONFIG is not set")
	}
	file, err := config.LoadSyncFile(rt.cfg.SyncConfigPath)
	if err != nil {
		return nil, err
	}
	systems, err := integration.NewSystems(file, rt.httpClient())
	if err != nil {
		return nil, err
	}
	return integration.NewSyncer(systems, rt.store, bookings, syncConcurrency, rt.logger), nil
}
