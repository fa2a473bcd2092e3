package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"feedwatch/internal/config"
	"feedwatch/internal/infra/adapter/persistence/dynamo"
	pgRepo "feedwatch/internal/infra/adapter/persistence/postgres"
	sqliteRepo "feedwatch/internal/infra/adapter/persistence/sqlite"
	"feedwatch/internal/infra/db"
	"feedwatch/internal/infra/notifier"
	"feedwatch/internal/infra/scraper"
	"feedwatch/internal/infra/worker"
	"feedwatch/internal/observability/logging"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/observability/tracing"
	"feedwatch/internal/repository"
	"feedwatch/internal/resilience/circuitbreaker"
	"feedwatch/internal/usecase/notify"
	"feedwatch/internal/usecase/watch"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	sqlDB   *sql.DB
	store   repository.WatermarkRepository
	fetcher *scraper.RSSFetcher
	notify  notify.Service
	watch   *watch.Service

	closers []func(context.Context) error
}

// loadApp loads the configuration and installs the configured logger.
// Nothing is connected yet.
func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}
	if cfg.Tracing {
		a.closers = append(a.closers, tracing.InitTracer())
	}
	return a, nil
}

// openStore connects the configured watermark store.
func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.BackendPostgres:
		sqlDB, err := db.Open(a.cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.sqlDB = sqlDB
		a.store = pgRepo.NewWatermarkRepo(circuitbreaker.NewDBCircuitBreaker(sqlDB))
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })

	case config.BackendSQLite:
		sqlDB, err := db.OpenSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.MigrateUp(sqlDB, db.DialectSQLite); err != nil {
			_ = sqlDB.Close()
			return fmt.Errorf("migrate sqlite: %w", err)
		}
		a.sqlDB = sqlDB
		a.store = sqliteRepo.NewWatermarkRepo(sqlDB)
		a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })

	case config.BackendDynamoDB:
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return err
		}
		client := dynamodb.NewFromConfig(awsCfg)
		a.store = dynamo.NewWatermarkRepo(dynamo.WithCircuitBreaker(client, nil), a.cfg.Store.DynamoTable)

	default:
		return fmt.Errorf("unsupported store backend %q", a.cfg.Store.Backend)
	}

	a.logger.Info("watermark store ready", slog.String("backend", a.cfg.Store.Backend))
	return nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if a.cfg.Store.AWSRegion != "" {
		optFns = append(optFns, awsconfig.WithRegion(a.cfg.Store.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// buildNotify creates the channels and the dispatch service.
func (a *app) buildNotify(ctx context.Context) error {
	n := a.cfg.Notify
	channels := []notify.Channel{
		notify.NewSlackChannel(notifier.SlackConfig{
			Enabled:    n.Slack.Enabled,
			WebhookURL: n.Slack.WebhookURL,
			Timeout:    n.Slack.Timeout,
		}),
		notify.NewDiscordChannel(notifier.DiscordConfig{
			Enabled:    n.Discord.Enabled,
			WebhookURL: n.Discord.WebhookURL,
			Timeout:    n.Discord.Timeout,
		}),
	}

	if n.Email.IsEnabled() {
		awsCfg, err := a.awsConfig(ctx)
		if err != nil {
			return err
		}
		channels = append(channels, notify.NewEmailChannel(notifier.EmailConfig{
			Enabled:    true,
			Sender:     n.Email.Sender,
			Recipients: n.Email.Recipients,
			Timeout:    n.Email.Timeout,
		}, sesv2.NewFromConfig(awsCfg)))
	}

	for _, ch := range channels {
		a.logger.Info("notification channel configured",
			slog.String("channel", ch.Name()),
			slog.Bool("enabled", ch.IsEnabled()))
	}
	a.notify = notify.NewService(channels)
	return nil
}

// build wires everything a run needs.
func (a *app) build(ctx context.Context, wcfg *worker.WorkerConfig) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}
	if err := a.buildNotify(ctx); err != nil {
		return err
	}

	fetchCfg, err := scraper.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("fetch config: %w", err)
	}
	if wcfg.FetchTimeout > 0 && wcfg.FetchTimeout < fetchCfg.Timeout {
		fetchCfg.Timeout = wcfg.FetchTimeout
	}
	a.fetcher = scraper.NewRSSFetcherWithConfig(nil, fetchCfg)

	a.watch = watch.NewService(a.fetcher, a.store, a.notify, a.cfg.Sources(), wcfg.WatchConfig())
	metrics.UpdateFeedsConfigured(len(a.watch.Feeds()))
	return nil
}

// reportDBStats publishes pool statistics until ctx is done.
func (a *app) reportDBStats(ctx context.Context, every time.Duration) {
	if a.sqlDB == nil {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := a.sqlDB.Stats()
			metrics.UpdateDBConnectionStats(s.InUse, s.Idle)
		}
	}
}

// Close releases everything in reverse order of acquisition.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error("shutdown failed", slog.String("error", logging.SanitizeError(err)))
	}
}
