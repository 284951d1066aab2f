package timeexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// Wednesday, 10 June 2026.
func fixedNow() time.Time {
	return time.Date(2026, time.June, 10, 10, 0, 0, 0, ist)
}

func newTestParser(now func() time.Time) *Parser {
	return NewParser(ist, WithClock(now))
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, ist)
}

func TestParser_ParseRelativeDate(t *testing.T) {
	parser := newTestParser(fixedNow)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"today", "today", day(2026, 6, 10)},
		{"tomorrow", "Tomorrow", day(2026, 6, 11)},
		{"yesterday", "yesterday", day(2026, 6, 9)},
		{"next week", "sometime next week", day(2026, 6, 17)},
		{"last week", "last week", day(2026, 6, 3)},
		{"next month", "next month", day(2026, 7, 1)},
		{"last month", "last month", day(2026, 5, 1)},
		{"next weekday", "next friday", day(2026, 6, 12)},
		{"next same weekday", "next wednesday", day(2026, 6, 17)},
		{"compound ordinal", "twenty fourth june", day(2026, 6, 24)},
		{"month first", "june third", day(2026, 6, 3)},
		{"simple ordinal", "thirtieth april", day(2026, 4, 30)},
		{"iso date", "2026-07-04", day(2026, 7, 4)},
		{"month day", "june 24", day(2026, 6, 24)},
		{"suffixed day", "24th june", day(2026, 6, 24)},
		{"filler words", "on 3rd of july", day(2026, 7, 3)},
		{"month day year", "august 2, 2027", day(2027, 8, 2)},
		{"bare weekday later this week", "friday", day(2026, 6, 12)},
		{"bare weekday today", "wednesday", day(2026, 6, 10)},
		{"digit fallback", "the 5th of july 2027", day(2027, 7, 5)},
		{"bare day number", "15", day(2026, 6, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parser.ParseRelativeDate(tt.input)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParser_ParseRelativeDate_Unresolvable(t *testing.T) {
	parser := newTestParser(fixedNow)

	for _, input := range []string{
		"",
		"   ",
		"thirty first february",
		"sometime soon",
		"31 in february",
	} {
		t.Run(input, func(t *testing.T) {
			_, ok := parser.ParseRelativeDate(input)
			assert.False(t, ok)
		})
	}
}

func TestParser_ParseRelativeDate_MonthRolloverClampsToFirst(t *testing.T) {
	endOfJanuary := newTestParser(func() time.Time {
		return time.Date(2026, time.January, 31, 12, 0, 0, 0, ist)
	})
	got, ok := endOfJanuary.ParseRelativeDate("next month")
	require.True(t, ok)
	assert.Equal(t, day(2026, 2, 1), got)

	endOfMarch := newTestParser(func() time.Time {
		return time.Date(2026, time.March, 31, 12, 0, 0, 0, ist)
	})
	got, ok = endOfMarch.ParseRelativeDate("last month")
	require.True(t, ok)
	assert.Equal(t, day(2026, 2, 1), got)

	december := newTestParser(func() time.Time {
		return time.Date(2026, time.December, 15, 12, 0, 0, 0, ist)
	})
	got, ok = december.ParseRelativeDate("next month")
	require.True(t, ok)
	assert.Equal(t, day(2027, 1, 1), got)
}

func TestParser_NextMondayIsAlwaysAheadWithinAWeek(t *testing.T) {
	// 1 June 2026 is a Monday.
	for offset := 0; offset < 7; offset++ {
		today := time.Date(2026, time.June, 1+offset, 8, 0, 0, 0, ist)
		parser := newTestParser(func() time.Time { return today })

		got, ok := parser.ParseRelativeDate("next monday")
		require.True(t, ok)
		assert.Equal(t, time.Monday, got.Weekday())

		ahead := int(got.Sub(DateOf(today, ist)).Hours() / 24)
		if today.Weekday() == time.Monday {
			assert.Equal(t, 7, ahead)
		} else {
			assert.GreaterOrEqual(t, ahead, 1)
			assert.LessOrEqual(t, ahead, 7)
		}
	}
}

func TestNextWeekday(t *testing.T) {
	wednesday := day(2026, 6, 10)
	assert.Equal(t, day(2026, 6, 11), NextWeekday(wednesday, time.Thursday))
	assert.Equal(t, day(2026, 6, 17), NextWeekday(wednesday, time.Wednesday))
	assert.Equal(t, day(2026, 6, 15), NextWeekday(wednesday, time.Monday))
}

func TestDateOf(t *testing.T) {
	utcLate := time.Date(2026, time.June, 10, 20, 0, 0, 0, time.UTC)
	// 20:00 UTC is already 11 June in IST.
	assert.Equal(t, day(2026, 6, 11), DateOf(utcLate, ist))
}
