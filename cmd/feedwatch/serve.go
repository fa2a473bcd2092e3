package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"feedwatch/internal/infra/worker"
)

type serveOptions struct {
	RunAtStart bool
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	sopts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run feeds on a cron schedule with health and metrics endpoints",
		Long: `Serve runs all feeds on CRON_SCHEDULE until interrupted.

Endpoints:
  :WORKER_HEALTH_PORT  /health, /health/ready
  :METRICS_PORT        /metrics, /health/channels, /health/feeds`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts, sopts)
		},
	}
	cmd.Flags().BoolVar(&sopts.RunAtStart, "run-at-start", false, "run all feeds once before the first tick")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions, sopts *serveOptions) error {
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

	health := worker.NewHealthServer(fmt.Sprintf(":%d", wcfg.HealthPort), a.logger)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("health server exited", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, a.logger, fmt.Sprintf(":%d", wcfg.MetricsPort), a.notify, a.fetcher)
	go a.reportDBStats(ctx, 15*time.Second)

	sched, err := worker.NewScheduler(a.watch, wcfg, wm, health, a.logger)
	if err != nil {
		return err
	}
	if sopts.RunAtStart {
		sched.RunOnce(ctx)
	}
	sched.Start()
	health.SetReady(true)
	a.logger.Info("feedwatch serving",
		slog.Int("feeds", len(a.watch.Feeds())),
		slog.Time("next_run", sched.Next()))

	<-ctx.Done()
	health.SetReady(false)
	a.logger.Info("shutdown signal received")

	stopCtx, cancel := context.WithTimeout(context.Background(), wcfg.RunTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	return nil
}
