// Package periods derives the quarterly sweepstakes period keys ("2024-Q2")
// and their boundary dates.
package periods

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var keyPattern = regexp.MustCompile(`^(\d{4})-Q([1-4])$`)

var monthRanges = [...]string{"Jan-Mar", "Apr-Jun", "Jul-Sep", "Oct-Dec"}

// Current returns the period key containing t. The quarter is taken from t's
// own location.
func Current(t time.Time) string {
	return Key(t.Year(), quarterOf(t.Month()))
}

// Key formats a year and 1-indexed quarter.
func Key(year, quarter int) string {
	return fmt.Sprintf("%d-Q%d", year, quarter)
}

// Parse splits a period key into year and quarter.
func Parse(key string) (year, quarter int, err error) {
	m := keyPattern.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid period key %q", key)
	}
	year, _ = strconv.Atoi(m[1])
	quarter, _ = strconv.Atoi(m[2])
	return year, quarter, nil
}

// End returns the last calendar day of the period (midnight UTC). The quarter's
// final month is quarter*3; day 0 of the following month is its last day.
func End(key string) (time.Time, error) {
	year, quarter, err := Parse(key)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(quarter*3+1), 0, 0, 0, 0, 0, time.UTC), nil
}

// Before reports whether period a ends before period b starts. Keys compare
// lexically because the year is fixed-width.
func Before(a, b string) bool {
	return a < b
}

// Label renders the period for merchants, e.g. "2024 Q2 (Apr-Jun)".
func Label(key string) string {
	year, quarter, err := Parse(key)
	if err != nil {
		return key
	}
	return fmt.Sprintf("%d Q%d (%s)", year, quarter, monthRanges[quarter-1])
}

func quarterOf(m time.Month) int {
	return (int(m)-1)/3 + 1
}
