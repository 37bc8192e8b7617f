package domain

import (
	"fmt"
	"strings"
	"time"
)

// zonedLayouts carry their own offset; localLayouts are read in the caller's location.
// The local forms cover what an HTML datetime-local input submits.
var (
	zonedLayouts = []string{time.RFC3339Nano}
	localLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02 15:04:05",
	}
)

// ParseTimestamp parses a follow-up timestamp.
// Returns ErrMalformedTimestamp when no known layout matches.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// FormatTimestamp renders t the way the service writes follow-up times.
// Sub-second precision is kept so the value parses back to the same instant.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
