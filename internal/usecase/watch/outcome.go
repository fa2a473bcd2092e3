package watch

import (
	"errors"
	"time"

	"feedwatch/internal/domain/entity"
)

// Outcome is the terminal state of one feed cycle.
type Outcome string

const (
	OutcomeNoChange         Outcome = "no_change"
	OutcomeNotified         Outcome = "notified"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeStoreReadFailed  Outcome = "store_read_failed"
	OutcomeDispatchFailed   Outcome = "dispatch_failed"
	OutcomeStoreWriteFailed Outcome = "store_write_failed"
)

// Failed reports whether the outcome counts against the run.
// store_write_failed is a failure even though the notification went out.
func (o Outcome) Failed() bool {
	return o != OutcomeNoChange && o != OutcomeNotified
}

// FeedOutcome is the result of one feed cycle.
type FeedOutcome struct {
	Feed    entity.Source
	Outcome Outcome
	// NewEntries is the size of the detected set, whether or not it was delivered.
	NewEntries int
	Anomalies  int
	// Watermark is the advanced watermark on notified, nil otherwise.
	Watermark *entity.Watermark
	// Lag is the time between the oldest delivered entry's publication and
	// the watermark advance.
	Lag      time.Duration
	Duration time.Duration
	Err      error
}

// RunSummary aggregates the outcomes of one RunAll, in configuration order.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
	Outcomes   []FeedOutcome
}

// Err joins the errors of every failed feed, or returns nil.
func (s *RunSummary) Err() error {
	var errs []error
	for _, o := range s.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Count returns how many feeds ended with outcome o.
func (s *RunSummary) Count(o Outcome) int {
	n := 0
	for _, fo := range s.Outcomes {
		if fo.Outcome == o {
			n++
		}
	}
	return n
}

// MaxLag returns the largest notification lag among notified feeds.
func (s *RunSummary) MaxLag() time.Duration {
	var lag time.Duration
	for _, o := range s.Outcomes {
		if o.Outcome == OutcomeNotified && o.Lag > lag {
			lag = o.Lag
		}
	}
	return lag
}
