package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if v := GetEnvTrimmed(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns defaultValue when key is unset or not a valid bool.
func GetEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(GetEnvTrimmed(key))
	if err != nil {
		return defaultValue
	}
	return b
}

// GetEnvPositiveInt ignores zero, negative and malformed values.
func GetEnvPositiveInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(GetEnvTrimmed(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

// GetEnvPositiveDuration accepts time.ParseDuration syntax, e.g. "90s".
func GetEnvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnvTrimmed(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// Unquote strips surrounding whitespace and one pair of matching quotes,
// which .env files and container runtimes sometimes leave in place.
func Unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}
