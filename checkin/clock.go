package checkin

import "time"

// The logical day flips at 07:30 UTC rather than midnight, so late-night
// check-ins still count toward the previous day's prompt.
const (
	CutoffHour   = 7
	CutoffMinute = 30
)

// Day maps an instant to the logical calendar day it belongs to, as a
// midnight-UTC date. Instants before the 07:30 UTC cutoff belong to the
// previous day.
func Day(t time.Time) time.Time {
	utc := t.UTC()
	date := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	if utc.Before(CutoffOn(utc)) {
		return date.AddDate(0, 0, -1)
	}
	return date
}

// CutoffOn returns the 07:30 UTC cutoff instant on the same calendar date
// as t.
func CutoffOn(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), CutoffHour, CutoffMinute, 0, 0, time.UTC)
}
