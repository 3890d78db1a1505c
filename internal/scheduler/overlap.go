package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeRange is returned when a reservation window cannot be
// parsed or does not satisfy start < end.
var ErrInvalidTimeRange = errors.New("invalid time range")

// MinuteOfDay parses a wall-clock "HH:MM" string into minutes since
// midnight. Reservations are same-day only, so a pair of these values
// fully describes a booking window.
func MinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Overlaps reports whether the half-open minute intervals [s1,e1) and
// [s2,e2) intersect. Back-to-back windows (e1 == s2 or e2 == s1) do
// not overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}

// window is a parsed reservation interval.
type window struct {
	start int
	end   int
}

// parseWindow converts an "HH:MM" pair into a window, enforcing the
// strict start < end invariant.
func parseWindow(startTime, endTime string) (window, error) {
	start, err := MinuteOfDay(startTime)
	if err != nil {
		return window{}, ErrInvalidTimeRange
	}
	end, err := MinuteOfDay(endTime)
	if err != nil {
		return window{}, ErrInvalidTimeRange
	}
	if start >= end {
		return window{}, ErrInvalidTimeRange
	}
	return window{start: start, end: end}, nil
}
