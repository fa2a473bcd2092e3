package scraper

import "errors"

var (
	// ErrInvalidURL is returned for feed URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid feed URL")

	// ErrBodyTooLarge is returned when a feed document exceeds MaxBodySize.
	ErrBodyTooLarge = errors.New("feed body too large")

	// ErrTooManyRedirects is returned when the redirect chain exceeds MaxRedirects.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrParse is returned when the document is neither RSS, Atom nor JSON Feed.
	ErrParse = errors.New("parse feed")
)
