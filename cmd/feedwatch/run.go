package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feedwatch/internal/infra/worker"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one pass over all feeds and exit",
		Long: `Run fetches every configured feed once, notifies new entries and advances
the watermarks. It exits non-zero when any feed failed, so it can be driven
by an external scheduler.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runOnce(ctx, opts, cmd)
		},
	}
}

func runOnce(ctx context.Context, opts *rootOptions, cmd *cobra.Command) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	wm := worker.NewWorkerMetrics()
	wcfg := worker.LoadConfigFromEnv(a.logger, wm)
	if err := a.build(ctx, wcfg); err != nil {
		return err
	}

	sched, err := worker.NewScheduler(a.watch, wcfg, wm, nil, a.logger)
	if err != nil {
		return err
	}
	summary := sched.RunOnce(ctx)
	if summary == nil {
		return fmt.Errorf("run skipped: another run is in progress")
	}

	if err := writeSummary(cmd.OutOrStdout(), opts.Format, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d feeds failed", summary.Failed, len(summary.Outcomes))
	}
	return nil
}
