package domain

import (
	"fmt"
	"strings"
	"time"
)

// RangeKind enumerates the time-of-day preferences a search can be narrowed by.
type RangeKind int

const (
	RangeAny RangeKind = iota
	RangeMorning
	RangeAfternoon
	RangeEvening
	RangeNight
	// RangeBefore keeps slots that end by the clock time.
	RangeBefore
	// RangeAfter keeps slots that start at or after the clock time.
	RangeAfter
	// RangeAt starts the search at the clock time.
	RangeAt
)

// periodHours are half-open [start, end) hour bounds in the calendar timezone.
var periodHours = map[RangeKind][2]int{
	RangeMorning:   {6, 12},
	RangeAfternoon: {12, 17},
	RangeEvening:   {17, 21},
	RangeNight:     {21, 24},
}

var periodNames = map[RangeKind]string{
	RangeMorning:   "morning",
	RangeAfternoon: "afternoon",
	RangeEvening:   "evening",
	RangeNight:     "night",
}

// TimeRange is a time-of-day filter. Clock is minutes after midnight and only
// meaningful for RangeBefore, RangeAfter and RangeAt.
type TimeRange struct {
	Kind  RangeKind
	Clock int
}

// Periods are the named ranges offered as alternatives, in order.
var Periods = []TimeRange{
	{Kind: RangeMorning},
	{Kind: RangeAfternoon},
	{Kind: RangeEvening},
}

// ParseTimeRange reads "morning", "before 14:00", "after 09:30", "15:30" and so on.
// Anything unrecognised is RangeAny.
func ParseTimeRange(s string) TimeRange {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range periodNames {
		if s == name {
			return TimeRange{Kind: kind}
		}
	}

	kind := RangeAt
	switch {
	case strings.HasPrefix(s, "before "):
		kind, s = RangeBefore, strings.TrimPrefix(s, "before ")
	case strings.HasPrefix(s, "after "):
		kind, s = RangeAfter, strings.TrimPrefix(s, "after ")
	}

	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return TimeRange{}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return TimeRange{}
	}
	return TimeRange{Kind: kind, Clock: hour*60 + minute}
}

// IsAny reports whether the range imposes no restriction.
func (r TimeRange) IsAny() bool {
	return r.Kind == RangeAny
}

// String renders the range in the form ParseTimeRange accepts.
func (r TimeRange) String() string {
	if name, ok := periodNames[r.Kind]; ok {
		return name
	}
	clock := fmt.Sprintf("%02d:%02d", r.Clock/60, r.Clock%60)
	switch r.Kind {
	case RangeBefore:
		return "before " + clock
	case RangeAfter:
		return "after " + clock
	case RangeAt:
		return clock
	default:
		return ""
	}
}

// Clamp intersects the [start, end) window with the range on the same day.
// The result may be empty (start >= end) but is never widened.
func (r TimeRange) Clamp(start, end time.Time) (time.Time, time.Time) {
	if bounds, ok := periodHours[r.Kind]; ok {
		return later(start, WallClock(start, bounds[0]*60)),
			earlier(end, WallClock(start, bounds[1]*60))
	}

	clock := WallClock(start, r.Clock)
	switch r.Kind {
	case RangeBefore:
		return start, earlier(end, clock)
	case RangeAfter, RangeAt:
		return later(start, clock), end
	}
	return start, end
}

// GridAligned reports whether slots must stay on the working-day grid after
// clamping, which is the case for ranges anchored on an arbitrary clock time.
func (r TimeRange) GridAligned() bool {
	return r.Kind == RangeAfter || r.Kind == RangeAt
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func earlier(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

// MarshalText encodes the range as its String form.
func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a range written by MarshalText.
func (r *TimeRange) UnmarshalText(text []byte) error {
	*r = ParseTimeRange(string(text))
	return nil
}
