package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingMonth = errors.New("month is required")
	ErrInvalidMonth = errors.New("invalid month")
)

// MonthRange parses a "YYYY-MM" month string and returns the half-open interval
// [first day of month, first day of next month) in UTC. December rolls over
// into January of the following year.
func MonthRange(value string) (start, end time.Time, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, time.Time{}, ErrMissingMonth
	}
	y, m, ok := strings.Cut(value, "-")
	if !ok || len(y) != 4 || len(m) != 2 || !digits(y) || !digits(m) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}
	year, err := strconv.Atoi(y)
	if err != nil || year < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, value)
	}

	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	if month == 12 {
		end = time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	} else {
		end = time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	}
	return start, end, nil
}

// InRange reports whether the date falls in [start, end).
func InRange(date, start, end time.Time) bool {
	return !date.Before(start) && date.Before(end)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
