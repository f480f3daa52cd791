package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/erm/internal/http"
	"github.com/example/erm/internal/integration"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := loadRuntime(ctx, flags, os.Stdout)
			if err != nil {
				return err
			}
			defer rt.close()

			svc := rt.services()
			if rt.cfg.SyncConfigPath != "" && rt.cfg.SyncInterval > 0 {
				syncer, err := rt.syncer(svc.bookings)
				if err != nil {
					return err
				}
				go runSyncLoop(ctx, syncer, rt.cfg.SyncInterval, rt.logger)
			}

			server := &http.Server{
				Addr:              rt.cfg.HTTPAddr,
				Handler:           newHandler(rt, svc),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			return serve(ctx, server, rt.logger)
		},
	}
}

func newHandler(rt *runtime, svc services) http.Handler {
	logger := rt.logger
	sessions := httptransport.NewSessions(rt.cfg.SessionHashKey, rt.cfg.SessionBlockKey, rt.cfg.SessionTTL, nil)

	var pinger httptransport.Pinger
	if p, ok := rt.store.(httptransport.Pinger); ok {
		pinger = p
	}

	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(svc.auth, sessions, logger),
		Users:      httptransport.NewUserHandler(svc.users, logger),
		Engineers:  httptransport.NewEngineerHandler(svc.engineers, svc.bookings, logger),
		Bookings:   httptransport.NewBookingHandler(svc.bookings, logger),
		Reports:    httptransport.NewReportHandler(svc.reports, logger),
		Health:     httptransport.Health(pinger),
		Session:    httptransport.RequireSession(sessions, svc.auth, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

func serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("erm API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("erm API stopped")
	return nil
}

// runSyncLoop runs a synchronization pass every interval until ctx ends.
func runSyncLoop(ctx context.Context, syncer *integration.Syncer, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summaries, err := syncer.Run(ctx)
			if err != nil {
				logger.Error("synchronization failed", "error", err)
				continue
			}
			for _, s := range summaries {
				logger.Info("synchronization finished", "system", s.System, "fetched", s.Fetched,
					"inserted", s.Inserted, "updated", s.Updated, "failed", s.Failed, "error", s.Err)
			}
		}
	}
}
