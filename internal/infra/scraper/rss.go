// Package scraper fetches RSS, Atom and JSON feeds and turns their items into
// domain entries. It uses the gofeed library for parsing and wraps every
// request in retry logic and a per-host circuit breaker.
package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feedwatch/internal/domain/entity"
	"feedwatch/internal/resilience/circuitbreaker"
	"feedwatch/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

// RSSFetcher implements watch.FeedFetcher using the gofeed library.
// It includes circuit breaker and retry logic for improved reliability.
type RSSFetcher struct {
	client   *http.Client
	breakers *circuitbreaker.Group
	config   Config
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client and the
// default configuration. A nil client gets one built from the configuration.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return NewRSSFetcherWithConfig(client, DefaultConfig())
}

// NewRSSFetcherWithConfig creates a new RSSFetcher with custom configuration.
func NewRSSFetcherWithConfig(client *http.Client, cfg Config) *RSSFetcher {
	if client == nil {
		client = newHTTPClient(cfg)
	}
	return &RSSFetcher{
		client:   client,
		breakers: circuitbreaker.NewGroup(cfg.Breaker),
		config:   cfg,
	}
}

func newHTTPClient(cfg Config) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return nil
		},
	}
}

// Fetch retrieves and parses the feed at feedURL and returns its items in
// document order. Transient failures are retried with backoff; a host whose
// breaker is open is rejected without a request.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]entity.Entry, error) {
	if err := entity.ValidateFeedURL(feedURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	breaker := f.breakers.Get(u.Host)

	var entries []entity.Entry
	retryErr := retry.Do(ctx, "feed_fetch", f.config.Retry, func(ctx context.Context) error {
		result, err := breaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.IsRejection(err) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("feed_url", feedURL),
					slog.String("state", breaker.State().String()))
			}
			return err
		}
		entries = result.([]entity.Entry)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return entries, nil
}

func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]entity.Entry, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && errors.Is(urlErr.Err, ErrTooManyRedirects) {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.NewHTTPError(resp, time.Now())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	entries := make([]entity.Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		entries = append(entries, toEntry(it))
	}
	return entries, nil
}

// toEntry keeps the publication timestamp as the raw string the feed carried;
// parsing it is part of change detection, not of fetching.
func toEntry(it *gofeed.Item) entity.Entry {
	e := entity.Entry{
		Title:        strings.TrimSpace(it.Title),
		Link:         strings.TrimSpace(it.Link),
		RawPublished: strings.TrimSpace(it.Published),
		NativeID:     strings.TrimSpace(it.GUID),
		Summary:      it.Description,
		Content:      it.Content,
	}
	if e.RawPublished == "" {
		e.RawPublished = strings.TrimSpace(it.Updated)
	}
	if e.Link == "" && len(it.Links) > 0 {
		e.Link = strings.TrimSpace(it.Links[0])
	}

	switch {
	case it.Author != nil && it.Author.Name != "":
		e.Author = it.Author.Name
	case len(it.Authors) > 0 && it.Authors[0] != nil:
		e.Author = it.Authors[0].Name
	}

	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		e.Enclosures = append(e.Enclosures, entity.Enclosure{
			URL:    enc.URL,
			Type:   enc.Type,
			Length: enc.Length,
		})
	}
	return e
}

// BreakerStates reports the circuit state per feed host.
func (f *RSSFetcher) BreakerStates() map[string]string {
	states := f.breakers.States()
	out := make(map[string]string, len(states))
	for host, st := range states {
		out[host] = st.String()
	}
	return out
}
