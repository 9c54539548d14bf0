package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relocato/leadimport/internal/importer"
	"github.com/relocato/leadimport/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the manual trigger HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := resolveMailboxPassword(); err != nil {
			return err
		}

		go runScheduler(ctx)

		srv := server.New(imp, logger)
		err := srv.ListenAndServe(ctx, cfg.ListenAddr)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// runScheduler fires imports at the configured cadence. Runs outside
// business hours are skipped; run failures are logged and the next
// tick tries again.
func runScheduler(ctx context.Context) {
	interval := time.Duration(cfg.Import.ScheduleIntervalMin) * time.Minute
	if interval <= 0 {
		logger.Info("scheduler disabled", "schedule_interval_min", cfg.Import.ScheduleIntervalMin)
		return
	}

	logger.Info("scheduler started", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, err := imp.Run(ctx, importer.Options{Scheduled: true})
			if err != nil && !errors.Is(err, importer.ErrOutsideBusinessHours) {
				logger.Error("scheduled import failed", "error", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
