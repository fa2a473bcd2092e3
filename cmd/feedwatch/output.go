package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/usecase/watch"
)

type feedResultJSON struct {
	Feed       string `json:"feed"`
	Outcome    string `json:"outcome"`
	NewEntries int    `json:"new_entries"`
	Anomalies  int    `json:"anomalies"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type summaryJSON struct {
	RunID     string           `json:"run_id"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Feeds     []feedResultJSON `json:"feeds"`
}

type watermarkJSON struct {
	FeedKey        string    `json:"feed_key"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
	LastEntryID    string    `json:"last_entry_id"`
	LastEntryTitle string    `json:"last_entry_title"`
}

func writeSummary(w io.Writer, format string, s *watch.RunSummary) error {
	if format == "json" {
		out := summaryJSON{RunID: s.RunID, Succeeded: s.Succeeded, Failed: s.Failed}
		for _, o := range s.Outcomes {
			r := feedResultJSON{
				Feed:       o.Feed.FeedURL,
				Outcome:    string(o.Outcome),
				NewEntries: o.NewEntries,
				Anomalies:  o.Anomalies,
				DurationMS: o.Duration.Milliseconds(),
			}
			if o.Err != nil {
				r.Error = o.Err.Error()
			}
			out.Feeds = append(out.Feeds, r)
		}
		return encodeJSON(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED\tOUTCOME\tNEW\tSKIPPED\tERROR")
	for _, o := range s.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			o.Feed.DisplayName(), o.Outcome, o.NewEntries, o.Anomalies, errText)
	}
	fmt.Fprintf(tw, "\nrun %s: %d succeeded, %d failed\n", s.RunID, s.Succeeded, s.Failed)
	return tw.Flush()
}

func writeWatermarks(w io.Writer, format string, wms ...*entity.Watermark) error {
	if format == "json" {
		out := make([]watermarkJSON, 0, len(wms))
		for _, wm := range wms {
			out = append(out, watermarkJSON{
				FeedKey:        wm.FeedKey,
				LastCheckedAt:  wm.LastCheckedAt,
				LastEntryID:    wm.LastEntryID,
				LastEntryTitle: wm.LastEntryTitle,
			})
		}
		return encodeJSON(w, out)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED\tLAST CHECKED\tLAST ENTRY")
	for _, wm := range wms {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			wm.FeedKey, wm.LastCheckedAt.Format(time.RFC3339), wm.LastEntryTitle)
	}
	return tw.Flush()
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
