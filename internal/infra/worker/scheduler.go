package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"feedwatch/internal/observability/slo"
	"feedwatch/internal/pkg/config"
	"feedwatch/internal/usecase/watch"
)

// Runner runs one pass over all feeds.
type Runner interface {
	RunAll(ctx context.Context) *watch.RunSummary
}

// Scheduler triggers Runner on a cron schedule. A tick that fires while the
// previous run is still going is skipped, never queued.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	cfg     *WorkerConfig
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger
	running atomic.Bool
}

// NewScheduler validates the schedule and timezone of cfg. health may be nil.
func NewScheduler(runner Runner, cfg *WorkerConfig, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	schedule, err := config.ParseCronSchedule(cfg.CronSchedule)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		runner:  runner,
		cfg:     cfg,
		metrics: metrics,
		health:  health,
		logger:  logger,
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() { s.RunOnce(context.Background()) }))
	return s, nil
}

// Start begins firing on the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone))
}

// Stop stops new ticks and waits for a running job, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, run still in progress")
	}
}

// Next returns the next scheduled fire time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce runs the feeds once under RunTimeout. It returns nil and records a
// skip if a run is already in progress.
func (s *Scheduler) RunOnce(ctx context.Context) *watch.RunSummary {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordJobRun("skipped")
		s.logger.Warn("previous run still in progress, skipping tick")
		return nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	summary := s.runner.RunAll(ctx)
	s.Observe(summary, time.Since(start))
	return summary
}

// Observe records a finished run in the worker and SLO metrics.
func (s *Scheduler) Observe(summary *watch.RunSummary, d time.Duration) {
	s.metrics.RecordJobDuration(d)
	s.metrics.RecordFeedsProcessed(len(summary.Outcomes))
	if summary.Failed > 0 {
		s.metrics.RecordJobRun("failure")
	} else {
		s.metrics.RecordJobRun("success")
		s.metrics.RecordLastSuccess()
	}

	slo.UpdateCycleSuccess(summary.Succeeded, summary.Failed)
	slo.UpdateNotificationLag(summary.MaxLag())
	slo.UpdateStoreWriteFailure(
		summary.Count(watch.OutcomeNotified),
		summary.Count(watch.OutcomeStoreWriteFailed))

	if s.health != nil {
		s.health.MarkRun(summary.FinishedAt)
	}
}
