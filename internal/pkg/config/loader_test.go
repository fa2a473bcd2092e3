package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Test Group 1: LoadEnvString / LoadEnvWithFallback
// ============================================================================

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "custom_value")
	assert.Equal(t, "custom_value", LoadEnvString("TEST_STRING", "default_value"))

	t.Setenv("TEST_STRING", "")
	assert.Equal(t, "default_value", LoadEnvString("TEST_STRING", "default_value"))
}

func TestLoadEnvWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		validator    func(string) error
		want         string
		wantFallback bool
	}{
		{"valid cron", "0 6 * * *", ValidateCronSchedule, "0 6 * * *", false},
		{"descriptor", "@every 15m", ValidateCronSchedule, "@every 15m", false},
		{"unset", "", ValidateCronSchedule, "*/15 * * * *", false},
		{"invalid cron", "invalid cron", ValidateCronSchedule, "*/15 * * * *", true},
		{"six fields", "0 0 6 * * *", ValidateCronSchedule, "*/15 * * * *", true},
		{"no validator", "anything", nil, "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON", tt.value)

			res := LoadEnvWithFallback("TEST_CRON", "*/15 * * * *", tt.validator)

			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, res.Warning, "Invalid TEST_CRON='"+tt.value+"'")
				assert.Contains(t, res.Warning, "falling back to default '*/15 * * * *'")
			} else {
				assert.Empty(t, res.Warning)
			}
		})
	}
}

// ============================================================================
// Test Group 2: typed loaders
// ============================================================================

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		want         time.Duration
		wantFallback bool
	}{
		{"valid", "45m", 45 * time.Minute, false},
		{"compound", "1h30m", 90 * time.Minute, false},
		{"bad format", "ten minutes", 15 * time.Minute, true},
		{"negative", "-5m", 15 * time.Minute, true},
		{"zero", "0s", 15 * time.Minute, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.value)

			res := LoadEnvDuration("TEST_TIMEOUT", 15*time.Minute, ValidatePositiveDuration)

			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
		})
	}
}

func TestLoadEnvInt(t *testing.T) {
	between := func(v int) error { return ValidateIntRange(v, 1, 32) }
	tests := []struct {
		name         string
		value        string
		want         int
		wantFallback bool
	}{
		{"valid", "8", 8, false},
		{"unset", "", 4, false},
		{"decimal", "2.5", 4, true},
		{"spaces", " 8 ", 4, true},
		{"below", "0", 4, true},
		{"above", "33", 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)

			res := LoadEnvInt("TEST_INT", 4, between)

			assert.Equal(t, tt.want, res.Value)
			assert.Equal(t, tt.wantFallback, res.FallbackApplied)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	for _, v := range []string{"1", "t", "true", "TRUE"} {
		t.Setenv("TEST_BOOL", v)
		assert.True(t, LoadEnvBool("TEST_BOOL", false).Value, v)
	}
	for _, v := range []string{"0", "f", "false", "False"} {
		t.Setenv("TEST_BOOL", v)
		assert.False(t, LoadEnvBool("TEST_BOOL", true).Value, v)
	}

	t.Setenv("TEST_BOOL", "yes")
	res := LoadEnvBool("TEST_BOOL", true)
	assert.True(t, res.Value)
	assert.True(t, res.FallbackApplied)
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " a@example.com, ,b@example.com ")
	res := LoadEnvList("TEST_LIST", nil)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, res.Value)
	assert.False(t, res.FallbackApplied)

	t.Setenv("TEST_LIST", " , ")
	res = LoadEnvList("TEST_LIST", []string{"x"})
	assert.Equal(t, []string{"x"}, res.Value)
	assert.True(t, res.FallbackApplied)
}
