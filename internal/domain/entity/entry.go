// Package entity defines the core domain types of the feed watcher: the feed
// sources being polled, the entries fetched from them and the per-feed
// watermark that records what has already been notified.
package entity

import "time"

// Entry is a single syndication item as fetched in the current cycle.
// Entries are rebuilt from the feed on every cycle and never persisted.
type Entry struct {
	Title string
	Link  string
	// RawPublished is the publication timestamp exactly as the feed carried it.
	// It is parsed by ParseTimestamp during detection.
	RawPublished string
	// NativeID is the feed-supplied identifier (RSS guid, Atom id), if any.
	NativeID string

	// Pass-through metadata used only when rendering notifications.
	Summary    string
	Content    string
	Author     string
	Enclosures []Enclosure
}

// Enclosure is a media attachment of an entry.
type Enclosure struct {
	URL    string
	Type   string
	Length string
}

// DetectedEntry is an entry that passed change detection, together with its
// parsed publication instant and its stable identity.
type DetectedEntry struct {
	Entry
	ID          string
	PublishedAt time.Time
}
