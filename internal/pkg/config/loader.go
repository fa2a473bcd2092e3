// Package config provides fail-open environment loading: a value that is
// missing falls back to its default silently, a value that is malformed or
// fails validation falls back with a warning.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult is the outcome of loading one environment variable.
//
// Example:
//
//	res := LoadEnvDuration("RUN_TIMEOUT", 15*time.Minute, ValidatePositiveDuration)
//	if res.FallbackApplied {
//	    logger.Warn("configuration fallback applied", slog.String("warning", res.Warning))
//	}
//	timeout := res.Value
type LoadResult[T any] struct {
	Value           T
	Warning         string
	FallbackApplied bool
}

// LoadEnvString returns the variable or defaultValue when it is unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string and validates it. validator may be nil.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	return loadEnv(envKey, defaultValue,
		func(s string) (string, error) { return s, nil },
		validator,
		func(v string) string { return v })
}

// LoadEnvDuration loads a Go duration string such as "30s" or "1h30m".
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator, time.Duration.String)
}

// LoadEnvInt loads a base-10 integer. Surrounding spaces are rejected.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadEnv(envKey, defaultValue, strconv.Atoi, validator, strconv.Itoa)
}

// LoadEnvBool loads anything strconv.ParseBool accepts.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return loadEnv(envKey, defaultValue, strconv.ParseBool, nil, strconv.FormatBool)
}

// LoadEnvList loads a comma-separated list. Blank items are dropped; a list
// that ends up empty falls back to defaultValue.
func LoadEnvList(envKey string, defaultValue []string) LoadResult[[]string] {
	return loadEnv(envKey, defaultValue, splitList, nil, func(v []string) string {
		return strings.Join(v, ",")
	})
}

func splitList(raw string) ([]string, error) {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("list has no items")
	}
	return out, nil
}

func loadEnv[T any](
	envKey string,
	defaultValue T,
	parse func(string) (T, error),
	validator func(T) error,
	format func(T) string,
) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	fallback := func(err error) LoadResult[T] {
		return LoadResult[T]{
			Value: defaultValue,
			Warning: fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%s'",
				envKey, raw, err, format(defaultValue)),
			FallbackApplied: true,
		}
	}

	v, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(v); err != nil {
			return fallback(err)
		}
	}
	return LoadResult[T]{Value: v}
}
