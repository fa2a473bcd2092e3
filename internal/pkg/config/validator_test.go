package config

import (
	"testing"
	"time"
)

func TestValidateTimezone(t *testing.T) {
	tests := []struct {
		tz      string
		wantErr bool
	}{
		{"UTC", false},
		{"Asia/Tokyo", false},
		{"America/New_York", false},
		{"", true},
		{"Mars/Olympus", true},
	}
	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			if err := ValidateTimezone(tt.tz); (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTimezone(%q) err = %v, wantErr %v", tt.tz, err, tt.wantErr)
			}
		})
	}
}

func TestParseCronSchedule_Next(t *testing.T) {
	s, err := ParseCronSchedule("*/15 * * * *")
	if err != nil {
		t.Fatalf("ParseCronSchedule: %v", err)
	}
	from := time.Date(2024, 1, 1, 10, 7, 0, 0, time.UTC)
	want := time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)
	if got := s.Next(from); !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestValidateRanges(t *testing.T) {
	if err := ValidateDuration(time.Minute, time.Second, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDuration(2*time.Hour, time.Second, time.Hour); err == nil {
		t.Fatal("expected error above maximum")
	}
	if err := ValidateDuration(time.Minute, time.Hour, time.Second); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if err := ValidateIntRange(5, 10, 1); err == nil {
		t.Fatal("expected error for inverted range")
	}
	if err := ValidatePort(80); err == nil {
		t.Fatal("expected error for privileged port")
	}
	if err := ValidatePort(9091); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePositiveDuration(0); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestValidateOneOf(t *testing.T) {
	v := ValidateOneOf("postgres", "sqlite", "dynamodb")
	if err := v("sqlite"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v("mysql"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidateHTTPSURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://hooks.slack.com/services/T000/B000/XXXX", false},
		{"http://hooks.slack.com/services/T000", true},
		{"/relative", true},
		{"https://", true},
	}
	for _, tt := range tests {
		if err := ValidateHTTPSURL(tt.url); (err != nil) != tt.wantErr {
			t.Errorf("ValidateHTTPSURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
