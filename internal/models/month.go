package models

import (
	"fmt"
	"time"
)

// Months are referenced everywhere by a "YYYY-MM" key. The day arrays in
// presence records are always sized to the real day count of that calendar
// month (28-31).

// ParseMonth validates a YYYY-MM month key and returns its year and month.
func ParseMonth(month string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: want YYYY-MM", month)
	}
	return t.Year(), t.Month(), nil
}

// DaysInMonth returns the number of days in a YYYY-MM month key.
func DaysInMonth(month string) (int, error) {
	year, m, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day(), nil
}
