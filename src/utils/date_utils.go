package utils

import (
	"strings"
	"time"
)

// Layouts seen across the card and invoicing exports, tried in order.
var dateLayouts = []string{
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	"2006-01-02 15:04",
	"02.01.2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
}

// ParseFlexibleDate tries the known export layouts in order.
func ParseFlexibleDate(dateStr string) (time.Time, bool) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MonthKey collapses a timestamp to its year-month, used for grouping.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
