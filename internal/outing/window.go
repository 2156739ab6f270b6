package outing

import (
	"fmt"
	"time"
)

// Allowed outing windows in minutes since midnight, by day type.
// Sunday 10:00-19:00, Saturday 13:00-19:00, weekdays 17:00-19:00.
// Every window closes at 19:00, which is also the request expiry time.
const (
	windowClose  = 19 * 60
	sundayOpen   = 10 * 60
	saturdayOpen = 13 * 60
	weekdayOpen  = 17 * 60
)

// ValidateOutingTime checks clock ("15:04") against the weekly policy for
// date's day of week. Pure function: the reason names the day type and its
// window when invalid.
func ValidateOutingTime(date time.Time, clock string) (bool, string) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return false, "invalid time format, use HH:MM in 24-hour format"
	}

	switch date.Weekday() {
	case time.Sunday:
		if minutes < sundayOpen || minutes > windowClose {
			return false, "Sunday outing time must be between 10 AM and 7 PM"
		}
	case time.Saturday:
		if minutes < saturdayOpen || minutes > windowClose {
			return false, "Saturday outing time must be between 1 PM and 7 PM"
		}
	default:
		if minutes < weekdayOpen || minutes > windowClose {
			return false, "Weekday outing time must be between 5 PM and 7 PM"
		}
	}

	return true, ""
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ExpiryFor returns the request expiry: the window close (19:00 local) of
// the outing date, regardless of the chosen time within the window.
func ExpiryFor(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 19, 0, 0, 0, date.Location())
}

// NormalizeDate truncates to local midnight so same-day comparisons are
// exact.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
