package entity

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"RFC1123Z", "Tue, 02 Jan 2024 15:04:05 +0000", want},
		{"RFC1123Z with offset", "Wed, 03 Jan 2024 00:04:05 +0900", want},
		{"RFC1123 GMT", "Tue, 02 Jan 2024 15:04:05 GMT", want},
		{"single digit day", "Tue, 2 Jan 2024 15:04:05 +0000", want},
		{"no weekday", "2 Jan 2024 15:04:05 +0000", want},
		{"RFC822Z", "02 Jan 24 15:04 +0000", want.Add(-5 * time.Second)},
		{"RFC3339", "2024-01-02T15:04:05Z", want},
		{"RFC3339 offset", "2024-01-02T10:04:05-05:00", want},
		{"RFC3339 nano", "2024-01-02T15:04:05.250Z", want.Add(250 * time.Millisecond)},
		{"ISO offset without colon", "2024-01-02T16:04:05+0100", want},
		{"ISO without zone", "2024-01-02T15:04:05", want},
		{"date only", "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2024-01-02T15:04:05Z\n", want},
		{"fallback parser", "2024-01-03 00:04:05 +0900", want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("ParseTimestamp(%q) location = %v, want UTC", tt.raw, got.Location())
			}
		})
	}
}

func TestParseTimestamp_SameInstantDifferentOffsets(t *testing.T) {
	a, err := ParseTimestamp("Tue, 02 Jan 2024 09:00:00 +0900")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseTimestamp("2024-01-02T00:00:00Z")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("instants differ: %v vs %v", a, b)
	}
}

func TestParseTimestamp_NamedZones(t *testing.T) {
	tests := []struct {
		named   string
		numeric string
	}{
		{"Tue, 02 Jan 2024 10:00:00 EST", "Tue, 02 Jan 2024 10:00:00 -0500"},
		{"Tue, 02 Jan 2024 10:00:00 EDT", "Tue, 02 Jan 2024 10:00:00 -0400"},
		{"Tue, 02 Jan 2024 09:00:00 CST", "Tue, 02 Jan 2024 09:00:00 -0600"},
		{"Tue, 02 Jan 2024 09:00:00 CDT", "Tue, 02 Jan 2024 09:00:00 -0500"},
		{"Tue, 02 Jan 2024 08:00:00 MST", "Tue, 02 Jan 2024 08:00:00 -0700"},
		{"Tue, 02 Jan 2024 08:00:00 MDT", "Tue, 02 Jan 2024 08:00:00 -0600"},
		{"Tue, 02 Jan 2024 07:00:00 PST", "Tue, 02 Jan 2024 07:00:00 -0800"},
		{"Tue, 2 Jan 2024 07:00:00 PDT", "Tue, 02 Jan 2024 07:00:00 -0700"},
		{"02 Jan 24 10:00 EST", "02 Jan 24 10:00 -0500"},
		{"Tue, 02 Jan 2024 15:00:00 GMT", "Tue, 02 Jan 2024 15:00:00 +0000"},
		{"Tue, 02 Jan 2024 15:00:00 UTC", "Tue, 02 Jan 2024 15:00:00 +0000"},
	}

	for _, tt := range tests {
		t.Run(tt.named, func(t *testing.T) {
			got, err := ParseTimestamp(tt.named)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.named, err)
			}
			want, err := ParseTimestamp(tt.numeric)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.numeric, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.named, got, want)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %v, want UTC", got.Location())
			}
		})
	}
}

// 10:40 EST is 15:40 UTC and must land after a 15:30 UTC check.
func TestParseTimestamp_NamedZoneOrdersAgainstUTC(t *testing.T) {
	got, err := ParseTimestamp("Tue, 02 Jan 2024 10:40:00 EST")
	if err != nil {
		t.Fatal(err)
	}
	checked := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
	if !got.After(checked) {
		t.Errorf("%v should be after %v", got, checked)
	}
}

func TestParseTimestamp_UnknownZoneRejected(t *testing.T) {
	for _, raw := range []string{
		"Tue, 02 Jan 2024 10:00:00 CET",
		"Tue, 02 Jan 2024 10:00:00 JST",
	} {
		t.Run(raw, func(t *testing.T) {
			got, err := ParseTimestamp(raw)
			if !errors.Is(err, ErrTimestampParse) {
				t.Errorf("ParseTimestamp(%q) = %v, %v; want ErrTimestampParse", raw, got, err)
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a date", "32/13/2024 99:99"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseTimestamp(raw)
			if !errors.Is(err, ErrTimestampParse) {
				t.Errorf("ParseTimestamp(%q) err = %v, want ErrTimestampParse", raw, err)
			}
		})
	}
}

func TestParseTimestampWith_Order(t *testing.T) {
	first := ParserFunc(func(string) (time.Time, error) { return time.Unix(1, 0), nil })
	second := ParserFunc(func(string) (time.Time, error) { return time.Unix(2, 0), nil })

	got, err := ParseTimestampWith([]TimestampParser{first, second}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Unix() != 1 {
		t.Errorf("got %v, want the first parser's result", got)
	}

	_, err = ParseTimestampWith(nil, "x")
	if !errors.Is(err, ErrTimestampParse) {
		t.Errorf("empty parser list err = %v", err)
	}
}
