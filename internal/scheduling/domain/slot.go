package domain

import "time"

// Slot is a candidate meeting start on the slot grid, with the end implied by
// the requested duration.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Label formats the start as spoken to the user, e.g. "03:30 PM".
func (s Slot) Label() string {
	return s.Start.Format("03:04 PM")
}

// Matches reports whether the slot starts at hour:minute.
func (s Slot) Matches(hour, minute int) bool {
	return s.Start.Hour() == hour && s.Start.Minute() == minute
}
