package stats

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned for snapshot timestamps in neither supported form
var ErrMalformedTimestamp = errors.New("malformed snapshot timestamp")

var legacyMonths = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// Layouts without a zone are read as UTC
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseSnapshotTimestamp reads a stored timestampHour. Two forms exist in
// the data: ISO-8601 ("2025-10-03T05:00:00Z") and the legacy text form
// ("Fri Oct 03 2025 00:00:00 GMT+0900 (Korean Standard Time)"). Legacy
// values keep their written offset.
func ParseSnapshotTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrMalformedTimestamp)
	}
	if isLegacyTimestamp(s) {
		return parseLegacyTimestamp(s)
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// SnapshotDate returns the calendar date (YYYY-MM-DD) a record belongs to.
// Legacy values use the date as written, ISO values their UTC date.
func SnapshotDate(s string) (string, error) {
	t, err := ParseSnapshotTimestamp(s)
	if err != nil {
		return "", err
	}
	if isLegacyTimestamp(strings.TrimSpace(s)) {
		return t.Format(time.DateOnly), nil
	}
	return t.UTC().Format(time.DateOnly), nil
}

func isLegacyTimestamp(s string) bool {
	return strings.Contains(s, "GMT")
}

// parseLegacyTimestamp parses fields positionally:
// weekday, month name, day, year, clock, GMT offset.
func parseLegacyTimestamp(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) < 6 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}

	month, ok := legacyMonths[fields[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: unknown month %q", ErrMalformedTimestamp, fields[1])
	}
	day, err := strconv.Atoi(fields[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day %q", ErrMalformedTimestamp, fields[2])
	}
	year, err := strconv.Atoi(fields[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: year %q", ErrMalformedTimestamp, fields[3])
	}
	clock, err := time.Parse(time.TimeOnly, fields[4])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: clock %q", ErrMalformedTimestamp, fields[4])
	}
	offset, err := parseGMTOffset(fields[5])
	if err != nil {
		return time.Time{}, err
	}

	t := time.Date(year, month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, time.FixedZone("", offset))
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: no such date %q", ErrMalformedTimestamp, s)
	}
	return t, nil
}

// parseGMTOffset converts "GMT+0900" to seconds east of UTC
func parseGMTOffset(field string) (int, error) {
	rest, ok := strings.CutPrefix(field, "GMT")
	if !ok {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedTimestamp, field)
	}
	if rest == "" {
		return 0, nil
	}
	if len(rest) != 5 || (rest[0] != '+' && rest[0] != '-') {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedTimestamp, field)
	}
	hh, err1 := strconv.Atoi(rest[1:3])
	mm, err2 := strconv.Atoi(rest[3:5])
	if err1 != nil || err2 != nil || mm > 59 {
		return 0, fmt.Errorf("%w: offset %q", ErrMalformedTimestamp, field)
	}
	secs := hh*3600 + mm*60
	if rest[0] == '-' {
		secs = -secs
	}
	return secs, nil
}
