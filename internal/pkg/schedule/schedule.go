// Package schedule computes recurring billing due dates. It is pure date
// math: no storage access, no clock reads, fully deterministic.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is a billing cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// MaxDayOfMonth caps day-of-month anchors so the configured day exists in
// every month of the year.
const MaxDayOfMonth = 28

// ParseFrequency normalizes and validates a billing frequency string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyDaily:
		return FrequencyDaily, nil
	case FrequencyWeekly:
		return FrequencyWeekly, nil
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	}
	return "", fmt.Errorf("unknown billing frequency %q", s)
}

// DateOf truncates a timestamp to its calendar date in UTC. All due-date
// arithmetic happens on these normalized dates.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ClampDayOfMonth forces a day-of-month anchor into the safe 1..28 range.
func ClampDayOfMonth(day int) int {
	if day < 1 {
		return 1
	}
	if day > MaxDayOfMonth {
		return MaxDayOfMonth
	}
	return day
}

// NextDueDate returns the next due date strictly after from.
//
// daily: from + 1 day, no anchor.
//
// weekly: the next occurrence of the anchor weekday (0 = Sunday .. 6 =
// Saturday). Without an anchor the weekday of from itself is used. The
// result is always 1..7 days ahead: when from already falls on the anchor
// weekday the cadence advances a full week rather than standing still.
//
// monthly: the anchor day (clamped to 1..28, default 1) in the month of
// from, or in the following month when that candidate is not strictly after
// from. Year boundaries roll over via date normalization.
func NextDueDate(freq Frequency, from time.Time, weekdayAnchor, dayOfMonthAnchor *int) (time.Time, error) {
	ref := DateOf(from)

	switch freq {
	case FrequencyDaily:
		return ref.AddDate(0, 0, 1), nil

	case FrequencyWeekly:
		target := int(ref.Weekday())
		if weekdayAnchor != nil {
			if *weekdayAnchor < 0 || *weekdayAnchor > 6 {
				return time.Time{}, fmt.Errorf("weekday anchor %d out of range 0..6", *weekdayAnchor)
			}
			target = *weekdayAnchor
		}
		delta := (target - int(ref.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return ref.AddDate(0, 0, delta), nil

	case FrequencyMonthly:
		day := 1
		if dayOfMonthAnchor != nil {
			day = ClampDayOfMonth(*dayOfMonthAnchor)
		}
		candidate := time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, time.UTC)
		if !candidate.After(ref) {
			candidate = time.Date(ref.Year(), ref.Month()+1, day, 0, 0, 0, 0, time.UTC)
		}
		return candidate, nil
	}

	return time.Time{}, fmt.Errorf("unknown billing frequency %q", freq)
}
