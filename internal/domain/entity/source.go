package entity

// Source is a configured feed. FeedURL doubles as the watermark key and is
// treated as an opaque unique string.
type Source struct {
	Name    string
	FeedURL string
}

// Key returns the watermark key of the source.
func (s Source) Key() string {
	return s.FeedURL
}

// DisplayName returns Name, falling back to the feed URL.
func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.FeedURL
}

// Validate validates the Source entity fields.
func (s *Source) Validate() error {
	return ValidateFeedURL(s.FeedURL)
}
