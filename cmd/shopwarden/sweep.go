// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopwarden/shopwarden/internal/auth"
	"github.com/shopwarden/shopwarden/internal/logging"
	"github.com/shopwarden/shopwarden/internal/observability"
)

// sweeper is the slice of the auth service the sweep loop needs.
type sweeper interface {
	PurgeInactive(ctx context.Context, window time.Duration) (int64, error)
	ClearExpiredTickets(ctx context.Context) (int64, error)
}

// NewSweepCmd creates the sweep subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the retention sweep daemon",
		Long: `Run the retention daemon. On each interval it removes identities
whose last activity is older than the inactivity window and clears
expired password-reset tickets.`,
		RunE: runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, cfg, cleanup, err := connectAndBuild(ctx, cmd.Flags())
	if err != nil {
		return err
	}
	defer cleanup()

	logging.SetDefault("shopwarden", version, cfg.Log.Format, cfg.Log.Level)

	slog.Info("starting retention sweep",
		"interval", cfg.Retention.SweepInterval,
		"inactivity_window", cfg.Retention.InactivityWindow,
	)

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool { return true })
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if stopErr := obsServer.Stop(shutdownCtx); stopErr != nil {
			slog.Warn("error stopping observability server", "error", stopErr)
		}
	}()
	go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	cmd.Println("Retention sweep started")
	runSweepLoop(ctx, svc, obsServer.Metrics(), cfg.Retention.SweepInterval, cfg.Retention.InactivityWindow)

	slog.Info("shutdown complete")
	return nil
}

// runSweepLoop performs an immediate sweep and then one per interval
// until the context is cancelled.
func runSweepLoop(ctx context.Context, svc sweeper, metrics *observability.Metrics, interval, window time.Duration) {
	sweepOnce(ctx, svc, metrics, window)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepOnce(ctx, svc, metrics, window)
		}
	}
}

// sweepOnce runs a single purge-and-clear pass. Failures are logged, not
// fatal; the next tick retries.
func sweepOnce(ctx context.Context, svc sweeper, metrics *observability.Metrics, window time.Duration) {
	purged, err := svc.PurgeInactive(ctx, window)
	if err != nil {
		slog.Error("inactivity purge failed", "error", err)
	} else {
		metrics.IdentitiesPurged.Add(float64(purged))
		if purged > 0 {
			slog.Info("purged inactive identities", "count", purged)
		}
	}

	cleared, err := svc.ClearExpiredTickets(ctx)
	if err != nil {
		slog.Error("ticket sweep failed", "error", err)
	} else {
		metrics.TicketsCleared.Add(float64(cleared))
		if cleared > 0 {
			slog.Info("cleared expired reset tickets", "count", cleared)
		}
	}
}

// monitorServerErrors cancels the context when a server reports a
// failure. It exits when an error arrives, the channel closes, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

// Compile-time check that the service satisfies the loop's contract.
var _ sweeper = (*auth.Service)(nil)
