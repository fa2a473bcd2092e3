package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// TimestampParser turns a raw feed timestamp into an instant.
type TimestampParser interface {
	Parse(raw string) (time.Time, error)
}

// LayoutParser parses with a single time layout. Layouts without a zone are
// interpreted as UTC.
type LayoutParser string

func (l LayoutParser) Parse(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(string(l), raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return anchorZone(t)
}

// errUnknownZone stops the parser list: a later, more lenient parser would
// read the same wall clock as UTC.
var errUnknownZone = errors.New("unknown time zone abbreviation")

// rfc822Zones holds the named zones of RFC 822 section 5 with their UTC
// offsets in hours.
var rfc822Zones = map[string]int{
	"UT": 0, "UTC": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// anchorZone fixes times parsed from a zone abbreviation. time.Parse gives an
// abbreviation it cannot resolve a zero offset, so the wall clock would be
// read as UTC. RFC 822 names are mapped to their real offset and any other
// unresolved abbreviation is rejected.
func anchorZone(t time.Time) (time.Time, error) {
	name, offset := t.Zone()
	if offset != 0 || name == "" || name == "UTC" {
		return t, nil
	}
	hours, ok := rfc822Zones[strings.ToUpper(name)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w %q", errUnknownZone, name)
	}
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.FixedZone(name, hours*3600)), nil
}

// ParserFunc adapts a function to TimestampParser.
type ParserFunc func(raw string) (time.Time, error)

func (f ParserFunc) Parse(raw string) (time.Time, error) {
	return f(raw)
}

// DefaultTimestampParsers is the ordered list tried by ParseTimestamp.
// RSS (RFC 822 family) layouts come first, then Atom (RFC 3339 / ISO 8601),
// then a permissive fallback.
var DefaultTimestampParsers = []TimestampParser{
	LayoutParser(time.RFC1123Z),
	LayoutParser(time.RFC1123),
	LayoutParser("Mon, 2 Jan 2006 15:04:05 -0700"),
	LayoutParser("Mon, 2 Jan 2006 15:04:05 MST"),
	LayoutParser("2 Jan 2006 15:04:05 -0700"),
	LayoutParser(time.RFC822Z),
	LayoutParser(time.RFC822),
	LayoutParser(time.RFC3339Nano),
	LayoutParser("2006-01-02T15:04:05-0700"),
	LayoutParser("2006-01-02T15:04:05"),
	LayoutParser("2006-01-02"),
	ParserFunc(func(raw string) (time.Time, error) {
		t, err := dateparse.ParseStrict(raw)
		if err != nil {
			return time.Time{}, err
		}
		return anchorZone(t)
	}),
}

// ParseTimestamp parses raw with DefaultTimestampParsers.
func ParseTimestamp(raw string) (time.Time, error) {
	return ParseTimestampWith(DefaultTimestampParsers, raw)
}

// ParseTimestampWith tries each parser in order and returns the first match,
// normalized to UTC so that equal instants compare equal.
func ParseTimestampWith(parsers []TimestampParser, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &TimestampParseError{Raw: raw}
	}

	for _, p := range parsers {
		t, err := p.Parse(raw)
		if err == nil {
			return t.UTC(), nil
		}
		if errors.Is(err, errUnknownZone) {
			break
		}
	}
	return time.Time{}, &TimestampParseError{Raw: raw}
}
