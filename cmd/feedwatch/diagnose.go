package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/infra/scraper"
	"feedwatch/internal/repository"
	"feedwatch/internal/usecase/detect"
	"feedwatch/internal/usecase/watch"
)

// Diagnostic statuses.
const (
	diagOK         = "OK"
	diagEmpty      = "EMPTY"
	diagFetchError = "FETCH_ERROR"
	diagStoreError = "STORE_ERROR"
)

// feedDiagnostic is the dry-run result for a single feed.
type feedDiagnostic struct {
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	Status         string     `json:"status"`
	ItemCount      int        `json:"item_count"`
	WouldNotify    int        `json:"would_notify"`
	Anomalies      int        `json:"anomalies"`
	LatestDate     string     `json:"latest_date,omitempty"`
	LastCheckedAt  *time.Time `json:"last_checked_at,omitempty"`
	ResponseTimeMS int64      `json:"response_time_ms"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

type diagnoseOptions struct {
	NoStore bool
	Pause   time.Duration
}

func newDiagnoseCommand(opts *rootOptions) *cobra.Command {
	dopts := &diagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Fetch every feed and report what a run would notify, without notifying",
		Long: `Diagnose fetches each configured feed and compares it with the stored
watermark. Nothing is sent and no watermark is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var store repository.WatermarkRepository
			if !dopts.NoStore {
				if err := a.openStore(ctx); err != nil {
					return err
				}
				store = a.store
			}
			fetchCfg, err := scraper.LoadConfigFromEnv()
			if err != nil {
				return fmt.Errorf("fetch config: %w", err)
			}
			fetcher := scraper.NewRSSFetcherWithConfig(nil, fetchCfg)

			feeds := a.cfg.Sources()
			results := make([]feedDiagnostic, 0, len(feeds))
			for i, feed := range feeds {
				if i > 0 && dopts.Pause > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(dopts.Pause):
					}
				}
				a.logger.Info("diagnosing feed",
					slog.Int("index", i+1),
					slog.Int("total", len(feeds)),
					slog.String("feed_url", feed.FeedURL))
				results = append(results, diagnoseFeed(ctx, fetcher, store, feed))
			}
			return writeDiagnostics(cmd.OutOrStdout(), opts.Format, results)
		},
	}

	cmd.Flags().BoolVar(&dopts.NoStore, "no-store", false, "ignore stored watermarks and treat every feed as never checked")
	cmd.Flags().DurationVar(&dopts.Pause, "pause", 500*time.Millisecond, "delay between feeds")
	return cmd
}

// diagnoseFeed runs the read-only half of a watch cycle. A nil store
// compares against no watermark.
func diagnoseFeed(ctx context.Context, fetcher watch.FeedFetcher, store repository.WatermarkRepository, feed entity.Source) feedDiagnostic {
	diag := feedDiagnostic{Name: feed.DisplayName(), URL: feed.FeedURL}

	start := time.Now()
	entries, err := fetcher.Fetch(ctx, feed.FeedURL)
	diag.ResponseTimeMS = time.Since(start).Milliseconds()
	if err != nil {
		diag.Status = diagFetchError
		diag.ErrorMessage = err.Error()
		return diag
	}
	diag.ItemCount = len(entries)
	if len(entries) > 0 {
		diag.LatestDate = entries[0].RawPublished
	}

	var wm *entity.Watermark
	if store != nil {
		wm, err = store.Get(ctx, feed.Key())
		if err != nil {
			diag.Status = diagStoreError
			diag.ErrorMessage = err.Error()
			return diag
		}
		if wm != nil {
			at := wm.LastCheckedAt
			diag.LastCheckedAt = &at
		}
	}

	res := detect.Detect(entries, wm)
	diag.WouldNotify = len(res.New)
	diag.Anomalies = len(res.Anomalies)

	if len(entries) == 0 {
		diag.Status = diagEmpty
		diag.ErrorMessage = "feed has no items"
		return diag
	}
	diag.Status = diagOK
	return diag
}

func writeDiagnostics(w io.Writer, format string, results []feedDiagnostic) error {
	if format == "json" {
		return encodeJSON(w, results)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED\tSTATUS\tITEMS\tNEW\tSKIPPED\tLATEST\tTIME\tERROR")
	var ok int
	for _, d := range results {
		if d.Status == diagOK {
			ok++
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%dms\t%s\n",
			d.Name, d.Status, d.ItemCount, d.WouldNotify, d.Anomalies, d.LatestDate, d.ResponseTimeMS, d.ErrorMessage)
	}
	fmt.Fprintf(tw, "\n%d/%d feeds OK\n", ok, len(results))
	return tw.Flush()
}
