// Copyright (c) 2025 PrevWORKS.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package weekkey

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DayLayout is the calendar-date format used as the once-per-day
// submission key.
const DayLayout = "2006-01-02"

var weekKeyPattern = regexp.MustCompile(`^\d{4}-W\d{2}$`)

// DayKey returns the calendar date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// FromTime returns the ISO 8601 week key (YYYY-Www) for t.
//
// ISO weeks start on Monday; week 1 is the week containing the year's
// first Thursday, so the week-year can differ from the calendar year at
// both ends of the year.
func FromTime(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// FromDayKey derives the ISO week key from a YYYY-MM-DD day key.
func FromDayKey(dayKey string) (string, error) {
	t, err := time.Parse(DayLayout, dayKey)
	if err != nil {
		return "", fmt.Errorf("invalid day key %q: %w", dayKey, err)
	}
	return FromTime(t), nil
}

// Valid reports whether s is a well-formed week key (YYYY-Www) with a
// week number an ISO calendar can produce (1-53). Zero-padded week keys
// sort lexicographically in chronological order, which the aggregate
// range queries rely on.
func Valid(s string) bool {
	if !weekKeyPattern.MatchString(s) {
		return false
	}
	week, err := strconv.Atoi(s[6:])
	if err != nil {
		return false
	}
	return week >= 1 && week <= 53
}
