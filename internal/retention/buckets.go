package retention

import (
	"fmt"
	"time"
)

// DayKey returns the calendar day bucket of t, e.g. "2024-01-10"
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKey returns the week bucket of t as "<year>-W<nn>". Weeks start on
// Monday and are numbered within the calendar year; days before the first
// Monday of a year fall into week 00. A week that spans Dec 31 and Jan 1 is
// therefore split across two buckets.
func WeekKey(t time.Time) string {
	return fmt.Sprintf("%04d-W%02d", t.Year(), mondayWeekNumber(t))
}

// mondayWeekNumber numbers weeks from 00, with week 01 starting on the first
// Monday of the year.
func mondayWeekNumber(t time.Time) int {
	yearDay := t.YearDay() - 1
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return (yearDay + 7 - weekday) / 7
}

// MonthKey returns the month bucket of t, e.g. "2024-01"
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// monthKeyBefore returns the key of the month that lies back months before
// the month of t, rolling over year boundaries.
func monthKeyBefore(t time.Time, back int) string {
	year := t.Year()
	month := int(t.Month()) - back
	for month <= 0 {
		month += 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}
