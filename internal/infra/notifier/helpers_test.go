package notifier

import (
	"fmt"
	"time"

	"feedwatch/internal/domain/entity"
)

func sampleNotification(n int) Notification {
	entries := make([]entity.DetectedEntry, 0, n)
	published := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		entries = append(entries, entity.DetectedEntry{
			Entry: entity.Entry{
				Title:   fmt.Sprintf("Entry %d", i+1),
				Link:    fmt.Sprintf("https://example.com/posts/%d", i+1),
				Summary: "Summary of the entry.",
				Author:  "alice",
			},
			ID:          fmt.Sprintf("id-%d", i+1),
			PublishedAt: published.Add(-time.Duration(i) * time.Hour),
		})
	}
	return Notification{
		Feed:    entity.Source{Name: "Example Blog", FeedURL: "https://example.com/feed.xml"},
		Entries: entries,
	}
}
