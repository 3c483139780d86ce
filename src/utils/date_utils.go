package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// timestampLayouts are tried in order by ParseTimestamp. Exchange exports mix
// fractional seconds, ISO separators and date-only values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	DefaultDateFormat,
	"02-01-2006 15:04:05",
	"02-01-2006",
}

// ParseTimestamp accepts the timestamp shapes found in exchange exports,
// including unix seconds. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil && secs > 0 {
		whole := int64(secs)
		nanos := int64((secs - float64(whole)) * 1e9)
		return time.Unix(whole, nanos).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
