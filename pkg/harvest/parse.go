package harvest

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrSourceDataMissing means a provider returned data without parts that
// are required to harvest it, for example columns of a table.
var ErrSourceDataMissing = errors.New("required source data is missing")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	"20060102",
	"02.01.2006",
}

// ParseTime parses dates and timestamps in formats used by observation
// providers. Times without a zone are UTC. For ISO 8601 intervals
// ("2020-01-01/2020-01-05") the start is returned.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if start, _, ok := strings.Cut(s, "/"); ok {
		s = start
	}
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseInterval parses an ISO 8601 interval or a single date. The end is
// nil if the value is a single date.
func ParseInterval(s string) (start, end *time.Time) {
	s = strings.TrimSpace(s)
	first, second, isInterval := strings.Cut(s, "/")
	if t, ok := ParseTime(first); ok {
		start = &t
	}
	if isInterval {
		if t, ok := ParseTime(second); ok {
			end = &t
		}
	}
	return start, end
}

// ParseFloat parses a decimal number, accepting a comma as the decimal
// separator. It returns nil for empty or invalid values.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
