package helper_util

import "time"

// Timestamps live on node properties as RFC3339 strings in UTC, so graph
// dumps stay readable and comparable without driver-specific temporal types.

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
