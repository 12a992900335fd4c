package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	v := strings.TrimSpace(os.Getenv(key))

	if v == "" {
		return defaultValue
	}

	return v
}

// GetEnvBool parses key with strconv.ParseBool; unset or unparsable values yield defaultValue.
func GetEnvBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}

	return b
}

// GetEnvInt parses key with strconv.Atoi; only positive values override defaultValue.
func GetEnvInt(key string, defaultValue int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultValue
	}

	return n
}

// GetEnvDuration parses key with time.ParseDuration; only positive durations override defaultValue.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}

	return d
}
