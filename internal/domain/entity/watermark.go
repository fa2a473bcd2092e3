package entity

import "time"

// Watermark is the durable per-feed marker of the most recent notified entry.
// A nil *Watermark means the feed has never been checked.
type Watermark struct {
	FeedKey        string
	LastCheckedAt  time.Time
	LastEntryID    string
	LastEntryTitle string // diagnostic only
}

// NewWatermark builds the watermark that follows a successful dispatch of
// newest, stamped with checkedAt.
func NewWatermark(feedKey string, newest DetectedEntry, checkedAt time.Time) *Watermark {
	return &Watermark{
		FeedKey:        feedKey,
		LastCheckedAt:  checkedAt.UTC(),
		LastEntryID:    newest.ID,
		LastEntryTitle: newest.Title,
	}
}

// Validate checks the fields required to persist the watermark.
func (w *Watermark) Validate() error {
	if w == nil {
		return &ValidationError{Field: "watermark", Message: "must not be nil"}
	}
	if w.FeedKey == "" {
		return &ValidationError{Field: "feed_key", Message: "is required"}
	}
	if w.LastCheckedAt.IsZero() {
		return &ValidationError{Field: "last_checked_at", Message: "is required"}
	}
	return nil
}
