package domain

import (
	"math"
	"strings"
	"time"
)

// Canonical formats written back to the row store.
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
)

// Layouts accepted on read. Sheets are hand-edited, so dates arrive in
// several regional spellings.
var dateLayouts = []string{
	DateTimeLayout,
	DateLayout,
	"02/01/2006 15:04:05",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	time.RFC3339,
}

// HasDate reports whether the cell holds something that is at least
// meant to be a date. Empty cells and the "None" sentinel do not.
func HasDate(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return false
	}
	return !strings.EqualFold(trimmed, "none")
}

// ParseDate interprets a sheet cell as a timestamp. Malformed values
// return ok=false; callers must treat that as "absent", never as now.
func ParseDate(raw string) (time.Time, bool) {
	if !HasDate(raw) {
		return time.Time{}, false
	}
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatDateTime renders the canonical timestamp spelling.
func FormatDateTime(ts time.Time) string {
	return ts.Format(DateTimeLayout)
}

// FormatDate renders the canonical date-only spelling.
func FormatDate(ts time.Time) string {
	return ts.Format(DateLayout)
}

// Midnight strips the time-of-day, keeping the calendar day in the
// timestamp's own location. Delay comparisons are by calendar day.
func Midnight(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location())
}

// CeilDays returns the difference between two instants in whole days,
// rounded up. Used for extension audit entries.
func CeilDays(from, to time.Time) int {
	diff := to.Sub(from).Seconds()
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff / 86400))
}
