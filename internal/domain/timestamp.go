package domain

import (
	"fmt"
	"time"

	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// TimestampFormat is the layout used when stamping documents: RFC 3339 in UTC
// with millisecond precision, e.g. 2025-01-10T09:30:00.000Z.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// acceptedLayouts are tried in order by ParseTimestamp.
//
//nolint:gochecknoglobals // Fixed parse table
var acceptedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 timestamp. The date and time may be
// separated by a space, offsets may omit the colon, and fractional seconds
// are optional. Zone-less values are read as UTC. Failures wrap
// ErrInvalidTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", wperrors.ErrInvalidTimestamp, s)
}

// FormatTimestamp renders t in TimestampFormat, normalized to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}
