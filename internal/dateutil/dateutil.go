// Package dateutil parses and classifies the date strings that appear in
// CAQH exports. Parsing is strictly against an explicit format list;
// fuzzy parsing would defeat the clear pass/fail contract of the
// validation layer.
package dateutil

import (
	"strings"
	"time"
)

// DefaultFormats are the date layouts accepted across the document,
// in the order they are tried.
var DefaultFormats = []string{
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/06",
	"01-02-06",
}

// Parse attempts to parse s against each layout in formats, falling back
// to DefaultFormats when formats is empty. The second return is false if
// no layout matches.
func Parse(s string, formats []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(formats) == 0 {
		formats = DefaultFormats
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsFuture reports whether t is strictly after the reference time's date.
func IsFuture(t, ref time.Time) bool {
	return t.After(truncateToDay(ref))
}

// DaysBetween returns the whole days from a to b (positive when b is
// later).
func DaysBetween(a, b time.Time) int {
	return int(truncateToDay(b).Sub(truncateToDay(a)).Hours() / 24)
}

// FormatDisplay renders a date as MM/DD/YYYY for user-facing messages.
func FormatDisplay(t time.Time) string {
	return t.Format("01/02/2006")
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
