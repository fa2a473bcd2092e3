package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/domain/entity"
)

type stubFetcher struct {
	entries []entity.Entry
	err     error
}

func (s *stubFetcher) Fetch(context.Context, string) ([]entity.Entry, error) {
	return s.entries, s.err
}

type stubStore struct {
	wm  *entity.Watermark
	err error
}

func (s *stubStore) Get(context.Context, string) (*entity.Watermark, error) { return s.wm, s.err }
func (s *stubStore) Put(context.Context, *entity.Watermark) error           { return nil }
func (s *stubStore) Delete(context.Context, string) error                   { return nil }
func (s *stubStore) List(context.Context) ([]*entity.Watermark, error)      { return nil, nil }

var diagFeed = entity.Source{Name: "Example", FeedURL: "https://example.com/feed.xml"}

func diagEntries() []entity.Entry {
	return []entity.Entry{
		{Title: "B", Link: "https://example.com/b", RawPublished: "Tue, 10 Mar 2026 12:00:00 +0000"},
		{Title: "A", Link: "https://example.com/a", RawPublished: "Mon, 09 Mar 2026 12:00:00 +0000"},
		{Title: "broken", Link: "https://example.com/x", RawPublished: "someday"},
	}
}

func TestDiagnoseFeed(t *testing.T) {
	checked := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		fetcher     *stubFetcher
		store       *stubStore
		wantStatus  string
		wantItems   int
		wantNew     int
		wantSkipped int
	}{
		{
			name:        "never checked",
			fetcher:     &stubFetcher{entries: diagEntries()},
			store:       &stubStore{},
			wantStatus:  diagOK,
			wantItems:   3,
			wantNew:     2,
			wantSkipped: 1,
		},
		{
			name:        "watermark between entries",
			fetcher:     &stubFetcher{entries: diagEntries()},
			store:       &stubStore{wm: &entity.Watermark{FeedKey: diagFeed.FeedURL, LastCheckedAt: checked}},
			wantStatus:  diagOK,
			wantItems:   3,
			wantNew:     1,
			wantSkipped: 1,
		},
		{
			name:       "fetch error",
			fetcher:    &stubFetcher{err: errors.New("HTTP 404")},
			store:      &stubStore{},
			wantStatus: diagFetchError,
		},
		{
			name:       "store error",
			fetcher:    &stubFetcher{entries: diagEntries()},
			store:      &stubStore{err: errors.New("connection refused")},
			wantStatus: diagStoreError,
			wantItems:  3,
		},
		{
			name:       "empty feed",
			fetcher:    &stubFetcher{},
			store:      &stubStore{},
			wantStatus: diagEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diagnoseFeed(context.Background(), tt.fetcher, tt.store, diagFeed)

			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantItems, got.ItemCount)
			assert.Equal(t, tt.wantNew, got.WouldNotify)
			assert.Equal(t, tt.wantSkipped, got.Anomalies)
		})
	}
}

func TestDiagnoseFeed_NilStoreComparesAgainstNothing(t *testing.T) {
	got := diagnoseFeed(context.Background(), &stubFetcher{entries: diagEntries()}, nil, diagFeed)

	assert.Equal(t, diagOK, got.Status)
	assert.Equal(t, 2, got.WouldNotify)
	assert.Nil(t, got.LastCheckedAt)
	assert.Equal(t, "Tue, 10 Mar 2026 12:00:00 +0000", got.LatestDate)
}

func TestWriteDiagnostics_Text(t *testing.T) {
	var buf bytes.Buffer
	results := []feedDiagnostic{
		{Name: "Example", Status: diagOK, ItemCount: 3, WouldNotify: 2},
		{Name: "Broken", Status: diagFetchError, ErrorMessage: "HTTP 404"},
	}

	require.NoError(t, writeDiagnostics(&buf, "text", results))

	assert.Contains(t, buf.String(), "FETCH_ERROR")
	assert.Contains(t, buf.String(), "1/2 feeds OK")
}
