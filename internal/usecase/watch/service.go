// Package watch drives the feed cycle: fetch a feed, detect entries newer
// than its watermark, notify them and advance the watermark only after the
// notification was accepted.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/observability/logging"
	"feedwatch/internal/observability/metrics"
	"feedwatch/internal/observability/tracing"
	"feedwatch/internal/repository"
	"feedwatch/internal/usecase/detect"
	"feedwatch/internal/usecase/notify"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// FeedFetcher is an interface for fetching a feed's entries, newest first.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]entity.Entry, error)
}

// Dispatcher delivers a batch of new entries. It must return nil only when
// the whole batch was accepted.
type Dispatcher interface {
	Dispatch(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error
}

// Config controls concurrency and the per-call timeouts of a cycle.
// A zero timeout disables that timeout.
type Config struct {
	MaxConcurrentFeeds int
	FetchTimeout       time.Duration
	DispatchTimeout    time.Duration
	StoreTimeout       time.Duration

	// Parsers overrides the timestamp layouts tried during detection.
	Parsers []entity.TimestampParser
	// Now is the clock used for LastCheckedAt. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentFeeds: 4,
		FetchTimeout:       60 * time.Second,
		DispatchTimeout:    60 * time.Second,
		StoreTimeout:       10 * time.Second,
	}
}

// Service runs feed cycles over a fixed feed list.
type Service struct {
	fetcher    FeedFetcher
	store      repository.WatermarkRepository
	dispatcher Dispatcher
	feeds      []entity.Source
	cfg        Config

	inflight singleflight.Group
}

// NewService creates a watch Service. Feeds sharing a URL collapse into the
// first occurrence, since they share one watermark.
func NewService(
	fetcher FeedFetcher,
	store repository.WatermarkRepository,
	dispatcher Dispatcher,
	feeds []entity.Source,
	cfg Config,
) *Service {
	if cfg.MaxConcurrentFeeds < 1 {
		cfg.MaxConcurrentFeeds = 1
	}
	if cfg.Parsers == nil {
		cfg.Parsers = entity.DefaultTimestampParsers
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	seen := make(map[string]bool, len(feeds))
	unique := make([]entity.Source, 0, len(feeds))
	for _, f := range feeds {
		if seen[f.Key()] {
			slog.Warn("duplicate feed in configuration, ignoring",
				slog.String("feed_url", f.FeedURL),
				slog.String("name", f.Name))
			continue
		}
		seen[f.Key()] = true
		unique = append(unique, f)
	}

	return &Service{
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		feeds:      unique,
		cfg:        cfg,
	}
}

// Feeds returns the deduplicated feed list in configuration order.
func (s *Service) Feeds() []entity.Source {
	out := make([]entity.Source, len(s.feeds))
	copy(out, s.feeds)
	return out
}

// RunAll runs one cycle for every configured feed and never fails as a
// whole: each feed's result, including its error, is in the summary.
// Feeds run concurrently up to MaxConcurrentFeeds.
func (s *Service) RunAll(ctx context.Context) *RunSummary {
	runID := uuid.NewString()
	ctx = logging.ContextWithRunID(ctx, runID)
	ctx, span := tracing.StartSpan(ctx, "watch.run",
		attribute.String("watch.run_id", runID),
		attribute.Int("watch.feeds", len(s.feeds)))
	logger := logging.WithRunID(ctx, logging.FromContext(ctx))

	start := time.Now()
	summary := &RunSummary{
		RunID:     runID,
		StartedAt: s.cfg.Now(),
		Outcomes:  make([]FeedOutcome, len(s.feeds)),
	}
	logger.Info("watch run started", slog.Int("feeds", len(s.feeds)))

	// Goroutines never return an error, so one feed cannot cancel the others.
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentFeeds)
	for i, feed := range s.feeds {
		i, feed := i, feed
		g.Go(func() error {
			summary.Outcomes[i] = s.RunFeed(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range summary.Outcomes {
		if o.Outcome.Failed() {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	summary.FinishedAt = s.cfg.Now()
	duration := time.Since(start)

	metrics.RecordRun(summary.Failed, duration, summary.FinishedAt)
	span.SetAttributes(
		attribute.Int("watch.succeeded", summary.Succeeded),
		attribute.Int("watch.failed", summary.Failed))
	tracing.EndSpan(span, nil)

	logger.Info("watch run completed",
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed),
		slog.Int("notified", summary.Count(OutcomeNotified)),
		slog.Duration("duration", duration))

	return summary
}

// RunFeed runs one cycle for feed. Concurrent calls for the same feed key
// share a single in-flight cycle and all receive its outcome.
func (s *Service) RunFeed(ctx context.Context, feed entity.Source) FeedOutcome {
	v, _, shared := s.inflight.Do(feed.Key(), func() (interface{}, error) {
		return s.cycle(ctx, feed), nil
	})
	if shared {
		logging.FromContext(ctx).Debug("joined in-flight cycle",
			slog.String("feed_url", feed.FeedURL))
	}
	return v.(FeedOutcome)
}

func (s *Service) cycle(ctx context.Context, feed entity.Source) (out FeedOutcome) {
	start := time.Now()
	out = FeedOutcome{Feed: feed}

	ctx, span := tracing.StartSpan(ctx, "watch.cycle", attribute.String("feed.url", feed.FeedURL))
	logger := logging.WithRunID(ctx, logging.FromContext(ctx)).With(slog.String("feed_url", feed.FeedURL))
	defer func() {
		out.Duration = time.Since(start)
		span.SetAttributes(
			attribute.String("watch.outcome", string(out.Outcome)),
			attribute.Int("watch.new_entries", out.NewEntries))
		tracing.EndSpan(span, out.Err)
		metrics.RecordFeedCycle(string(out.Outcome), out.Duration)
		logOutcome(logger, out)
	}()

	entries, err := s.fetch(ctx, feed)
	if err != nil {
		out.Outcome, out.Err = OutcomeFetchFailed, err
		return out
	}

	wm, err := s.readWatermark(ctx, feed)
	if err != nil {
		out.Outcome, out.Err = OutcomeStoreReadFailed, err
		return out
	}

	res := detect.DetectWith(s.cfg.Parsers, entries, wm)
	out.NewEntries = len(res.New)
	out.Anomalies = len(res.Anomalies)
	metrics.RecordDetection(len(entries), len(res.New))
	for _, a := range res.Anomalies {
		metrics.RecordAnomaly(string(a.Kind))
		logger.Warn("entry skipped",
			slog.String("kind", string(a.Kind)),
			slog.Int("index", a.Index),
			slog.String("title", a.Title),
			slog.String("link", a.Link),
			slog.String("error", a.Err.Error()))
	}
	if res.Empty() {
		out.Outcome = OutcomeNoChange
		return out
	}

	if err := s.dispatch(ctx, feed, res.New); err != nil {
		out.Outcome, out.Err = OutcomeDispatchFailed, err
		return out
	}

	now := s.cfg.Now()
	next := entity.NewWatermark(feed.Key(), res.New[0], now)
	if err := s.writeWatermark(ctx, next); err != nil {
		out.Outcome, out.Err = OutcomeStoreWriteFailed, err
		return out
	}

	out.Outcome = OutcomeNotified
	out.Watermark = next
	out.Lag = now.Sub(res.New[len(res.New)-1].PublishedAt)
	return out
}

func (s *Service) fetch(ctx context.Context, feed entity.Source) ([]entity.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "watch.fetch")
	ctx, cancel := withTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	entries, err := await(ctx, func(ctx context.Context) ([]entity.Entry, error) {
		return s.fetcher.Fetch(ctx, feed.FeedURL)
	})
	if err != nil {
		err = fmt.Errorf("%w %s: %w", ErrFetch, feed.FeedURL, err)
	}
	span.SetAttributes(attribute.Int("feed.entries", len(entries)))
	tracing.EndSpan(span, err)
	return entries, err
}

func (s *Service) readWatermark(ctx context.Context, feed entity.Source) (*entity.Watermark, error) {
	ctx, span := tracing.StartSpan(ctx, "watch.store.get")
	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	wm, err := await(ctx, func(ctx context.Context) (*entity.Watermark, error) {
		return s.store.Get(ctx, feed.Key())
	})
	metrics.RecordStoreOperation("get", time.Since(start), err)
	if err != nil {
		if !errors.Is(err, repository.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
		}
		err = fmt.Errorf("read watermark %s: %w", feed.Key(), err)
	}
	tracing.EndSpan(span, err)
	return wm, err
}

func (s *Service) dispatch(ctx context.Context, feed entity.Source, entries []entity.DetectedEntry) error {
	ctx, span := tracing.StartSpan(ctx, "watch.dispatch", attribute.Int("notify.entries", len(entries)))
	ctx, cancel := withTimeout(ctx, s.cfg.DispatchTimeout)
	defer cancel()

	_, err := await(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.dispatcher.Dispatch(ctx, feed, entries)
	})
	if err != nil && !errors.Is(err, notify.ErrDispatchFailed) {
		err = fmt.Errorf("%w: %w", notify.ErrDispatchFailed, err)
	}
	tracing.EndSpan(span, err)
	return err
}

// writeWatermark runs detached from ctx: once the notification is out, a
// cancelled run must not drop the write and widen the duplicate window.
func (s *Service) writeWatermark(ctx context.Context, wm *entity.Watermark) error {
	ctx, span := tracing.StartSpan(context.WithoutCancel(ctx), "watch.store.put")
	ctx, cancel := withTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	start := time.Now()
	_, err := await(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Put(ctx, wm)
	})
	metrics.RecordStoreOperation("put", time.Since(start), err)
	if err != nil {
		if !errors.Is(err, repository.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", repository.ErrStoreUnavailable, err)
		}
		err = fmt.Errorf("write watermark %s: %w", wm.FeedKey, err)
	}
	tracing.EndSpan(span, err)
	return err
}

func logOutcome(logger *slog.Logger, out FeedOutcome) {
	attrs := []any{
		slog.String("outcome", string(out.Outcome)),
		slog.Int("new_entries", out.NewEntries),
		slog.Int("anomalies", out.Anomalies),
		slog.Duration("duration", out.Duration),
	}
	switch out.Outcome {
	case OutcomeNoChange:
		logger.Debug("feed cycle completed", attrs...)
	case OutcomeNotified:
		logger.Info("feed cycle completed", append(attrs,
			slog.String("last_entry_id", out.Watermark.LastEntryID),
			slog.Time("last_checked_at", out.Watermark.LastCheckedAt))...)
	case OutcomeStoreWriteFailed:
		// Notification already delivered; the next run will resend it.
		logger.Error("watermark not advanced after notification", append(attrs,
			slog.String("error", logging.SanitizeError(out.Err)))...)
	default:
		logger.Warn("feed cycle failed", append(attrs,
			slog.String("error", logging.SanitizeError(out.Err)))...)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// await runs fn and returns as soon as either fn or ctx is done, so a
// collaborator that ignores its context cannot stall the cycle.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		// A result that is already there wins over the deadline.
		select {
		case r := <-ch:
			return r.v, r.err
		default:
		}
		var zero T
		return zero, ctx.Err()
	}
}
