package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTrack_RecordsFallback(t *testing.T) {
	m := NewConfigMetrics("test_track")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Setenv("TEST_PORT", "80")
	port := Track(m, logger, "health_port", LoadEnvInt("TEST_PORT", 9091, ValidatePort))
	m.RecordLoadTimestamp()

	if port != 9091 {
		t.Fatalf("port = %d, want 9091", port)
	}
	if !m.FallbackActive() {
		t.Fatal("FallbackActive = false, want true")
	}
	if got := testutil.ToFloat64(configFallbacks.WithLabelValues("test_track", "health_port")); got != 1 {
		t.Errorf("fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(configValidationErrors.WithLabelValues("test_track", "health_port")); got != 1 {
		t.Errorf("validation errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(configFallbackActive.WithLabelValues("test_track")); got != 1 {
		t.Errorf("fallback active = %v, want 1", got)
	}
}

func TestTrack_NoFallback(t *testing.T) {
	m := NewConfigMetrics("test_clean")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Setenv("TEST_PORT", "9100")
	port := Track(m, logger, "health_port", LoadEnvInt("TEST_PORT", 9091, ValidatePort))
	m.RecordLoadTimestamp()

	if port != 9100 {
		t.Fatalf("port = %d, want 9100", port)
	}
	if got := testutil.ToFloat64(configFallbackActive.WithLabelValues("test_clean")); got != 0 {
		t.Errorf("fallback active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(configLoadTimestamp.WithLabelValues("test_clean")); got == 0 {
		t.Error("load timestamp not set")
	}
}
