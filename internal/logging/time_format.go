package logging

import (
	"strings"
	"time"
)

// RecordTimestampLayout is the layout of timestamps written into the store.
// Fractional seconds are fixed width so lexical order follows time order.
const RecordTimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

func formatRecordTimestamp(ts time.Time) string {
	return ts.UTC().Format(RecordTimestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp. A trailing "Z" is treated as
// "+00:00"; values without an offset are taken as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(value, "Z") {
		value = strings.TrimSuffix(value, "Z") + "+00:00"
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
