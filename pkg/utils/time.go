package utils

import (
	"time"
)

// FormatTimestamp formats a timestamp to RFC3339
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}

// NowUTC returns the current time in UTC
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DurationSince returns the duration since the given time
func DurationSince(t time.Time) time.Duration {
	return time.Since(t)
}
