package domain

import (
	"errors"
	"time"
)

var ErrInvalidWorkingHours = errors.New("working hours must satisfy 0 <= start < end <= 24")

// WorkingHours bounds the bookable part of each day, in whole hours.
type WorkingHours struct {
	StartHour int
	EndHour   int
}

// DefaultWorkingHours is 09:00 to 18:00.
var DefaultWorkingHours = WorkingHours{StartHour: 9, EndHour: 18}

// Validate checks the hours describe a non-empty window within one day.
func (w WorkingHours) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return ErrInvalidWorkingHours
	}
	return nil
}

// Minutes returns the length of the working day.
func (w WorkingHours) Minutes() int {
	return (w.EndHour - w.StartHour) * 60
}

// Window returns the working window of date's calendar day in loc. The bounds
// are wall-clock hours, so a DST change shortens or lengthens the window
// rather than shifting it.
func (w WorkingHours) Window(date time.Time, loc *time.Location) (time.Time, time.Time) {
	date = date.In(loc)
	return WallClock(date, w.StartHour*60), WallClock(date, w.EndHour*60)
}

// WallClock returns the instant minutes after midnight on the wall clock of
// day's calendar day, in day's location. 24:00 is midnight of the next day.
func WallClock(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}
