// Package detect decides which fetched entries are new relative to a feed's
// watermark.
package detect

import (
	"time"

	"feedwatch/internal/domain/entity"
)

// AnomalyKind classifies an entry excluded from detection.
type AnomalyKind string

const (
	AnomalyTimestamp AnomalyKind = "timestamp"
	AnomalyIdentity  AnomalyKind = "identity"
)

// Anomaly describes an entry that could not take part in the comparison.
// Index is the entry's position in the fetched list.
type Anomaly struct {
	Kind  AnomalyKind
	Index int
	Title string
	Link  string
	Err   error
}

// Result is the outcome of Detect. New keeps the feed's order, which is
// assumed to be newest first.
type Result struct {
	New       []entity.DetectedEntry
	Anomalies []Anomaly
}

// Empty reports whether nothing new was found.
func (r Result) Empty() bool {
	return len(r.New) == 0
}

// Detect returns the entries published strictly after wm.LastCheckedAt.
// A nil watermark means the feed was never checked and every entry qualifies.
func Detect(entries []entity.Entry, wm *entity.Watermark) Result {
	return DetectWith(entity.DefaultTimestampParsers, entries, wm)
}

// DetectWith is Detect with an explicit timestamp parser list.
func DetectWith(parsers []entity.TimestampParser, entries []entity.Entry, wm *entity.Watermark) Result {
	var res Result
	if len(entries) == 0 {
		return res
	}

	var baseline time.Time
	hasBaseline := wm != nil
	if hasBaseline {
		baseline = wm.LastCheckedAt
	}

	for i, e := range entries {
		published, err := entity.ParseTimestampWith(parsers, e.RawPublished)
		if err != nil {
			res.Anomalies = append(res.Anomalies, anomaly(AnomalyTimestamp, i, e, err))
			continue
		}
		id, err := entity.DeriveID(e)
		if err != nil {
			res.Anomalies = append(res.Anomalies, anomaly(AnomalyIdentity, i, e, err))
			continue
		}
		if hasBaseline && !published.After(baseline) {
			continue
		}
		res.New = append(res.New, entity.DetectedEntry{Entry: e, ID: id, PublishedAt: published})
	}
	return res
}

func anomaly(kind AnomalyKind, i int, e entity.Entry, err error) Anomaly {
	return Anomaly{Kind: kind, Index: i, Title: e.Title, Link: e.Link, Err: err}
}
