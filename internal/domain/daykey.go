// Package domain holds the engagement engine's core types.
// The engine drives consistent usage through streaks, recurring
// challenges, and achievements — all keyed by calendar days.
package domain

import (
	"fmt"
	"time"
)

// DayKey identifies a calendar day in the user's timezone, "YYYY-MM-DD".
// All streak and challenge bookkeeping is keyed by DayKey, never by raw
// timestamps: two timestamps on the same local day are the same day, and a
// timestamp just past local midnight is the next day even if the UTC day
// has not rolled over yet.
type DayKey string

// dayKeyLayout is the time.Parse layout for DayKey strings.
const dayKeyLayout = "2006-01-02"

// MakeDayKey floors a timestamp to its local calendar day.
func MakeDayKey(t time.Time, loc *time.Location) DayKey {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return DayKey(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// Valid reports whether the key parses as a calendar day.
func (k DayKey) Valid() bool {
	_, err := time.Parse(dayKeyLayout, string(k))
	return err == nil
}

// Time returns midnight UTC of the key's calendar day.
// Day arithmetic on keys runs in UTC on purpose: a DST transition must
// never make two calendar days look like one (or three).
func (k DayKey) Time() (time.Time, error) {
	return time.Parse(dayKeyLayout, string(k))
}

// AddDays returns the key n calendar days after (or before, n < 0) this one.
// Invalid keys return themselves unchanged.
func (k DayKey) AddDays(n int) DayKey {
	t, err := k.Time()
	if err != nil {
		return k
	}
	return DayKey(t.AddDate(0, 0, n).Format(dayKeyLayout))
}

// DaysBetween returns the whole calendar days from a to b (negative if b
// precedes a). Invalid keys count as zero distance.
func DaysBetween(a, b DayKey) int {
	ta, err := a.Time()
	if err != nil {
		return 0
	}
	tb, err := b.Time()
	if err != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// Weekday returns the day of week, defaulting to Sunday for invalid keys.
func (k DayKey) Weekday() time.Weekday {
	t, err := k.Time()
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// IsMonday reports whether the key falls on a Monday — the only day on
// which weekly challenges reset.
func (k DayKey) IsMonday() bool {
	return k.Weekday() == time.Monday
}

// DaysInMonth returns the number of days in the given month (1-12).
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDayKey builds the key for a specific day of a month.
func MonthDayKey(year, month, day int) DayKey {
	return DayKey(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
}
