package domain

import "time"

// Event is a calendar entry as read from a backend.
type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
	Link    string
}

// Busy returns the interval the event occupies.
func (e Event) Busy() BusyInterval {
	return BusyInterval{Start: e.Start, End: e.End}
}

// BusyInterval is an immutable occupied span on the calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Touches reports whether date (any instant on that day) falls within the
// interval's calendar days in loc, inclusive at both ends. Multi-day intervals
// touch every day they span.
func (b BusyInterval) Touches(date time.Time, loc *time.Location) bool {
	day := civilDay(date, loc)
	return !day.Before(civilDay(b.Start, loc)) && !day.After(civilDay(b.End, loc))
}

// Conflicts reports whether [start, end) overlaps the interval. Touching
// boundaries do not conflict.
func (b BusyInterval) Conflicts(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BusyIntervals projects events onto their busy intervals.
func BusyIntervals(events []Event) []BusyInterval {
	intervals := make([]BusyInterval, 0, len(events))
	for _, e := range events {
		intervals = append(intervals, e.Busy())
	}
	return intervals
}

// NewEvent describes an event to create.
type NewEvent struct {
	Summary  string
	Start    time.Time
	End      time.Time
	TimeZone string
}

// Validate checks the event has a summary and a positive span.
func (e NewEvent) Validate() error {
	if e.Summary == "" {
		return ErrMissingSummary
	}
	if !e.End.After(e.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// EventReference identifies a created event.
type EventReference struct {
	ID   string
	Link string
}

// String returns the link when the backend provides one, otherwise the ID.
func (r EventReference) String() string {
	if r.Link != "" {
		return r.Link
	}
	return r.ID
}
