package core

import (
	"errors"
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	cases := []struct {
		value      string
		start, end string
	}{
		{"2024-01", "2024-01-01", "2024-02-01"},
		{"2024-02", "2024-02-01", "2024-03-01"},
		{"2024-12", "2024-12-01", "2025-01-01"},
		{" 2023-11 ", "2023-11-01", "2023-12-01"},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			start, end, err := MonthRange(tc.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := start.Format(DateLayout); got != tc.start {
				t.Errorf("start = %s, want %s", got, tc.start)
			}
			if got := end.Format(DateLayout); got != tc.end {
				t.Errorf("end = %s, want %s", got, tc.end)
			}
		})
	}
}

func TestMonthRangeInvalid(t *testing.T) {
	if _, _, err := MonthRange(""); !errors.Is(err, ErrMissingMonth) {
		t.Fatalf("expected ErrMissingMonth, got %v", err)
	}
	for _, value := range []string{"2024", "2024-1", "2024-13", "2024-00", "abcd-01", "2024/01", "2024-01-05", "24-01", "2024-+1", "+202-01"} {
		if _, _, err := MonthRange(value); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("%q: expected ErrInvalidMonth, got %v", value, err)
		}
	}
}

func TestInRangeBoundary(t *testing.T) {
	start, end, err := MonthRange("2024-01")
	if err != nil {
		t.Fatal(err)
	}
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !InRange(jan31, start, end) {
		t.Errorf("2024-01-31 should be in January")
	}
	if InRange(feb1, start, end) {
		t.Errorf("2024-02-01 should not be in January")
	}
	if !InRange(start, start, end) {
		t.Errorf("start is inclusive")
	}
}
