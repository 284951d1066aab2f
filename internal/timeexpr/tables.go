package timeexpr

import "time"

// unitOrdinals are the ordinal words that can stand alone or follow "twenty"/"thirty".
var unitOrdinals = map[string]int{
	"first":   1,
	"second":  2,
	"third":   3,
	"fourth":  4,
	"fifth":   5,
	"sixth":   6,
	"seventh": 7,
	"eighth":  8,
	"ninth":   9,
}

// simpleOrdinals are single-word ordinals that never take a tens prefix.
var simpleOrdinals = map[string]int{
	"tenth":       10,
	"eleventh":    11,
	"twelfth":     12,
	"thirteenth":  13,
	"fourteenth":  14,
	"fifteenth":   15,
	"sixteenth":   16,
	"seventeenth": 17,
	"eighteenth":  18,
	"nineteenth":  19,
	"twentieth":   20,
	"thirtieth":   30,
}

// ordinalTens maps the tens words of compound ordinals ("twenty first").
var ordinalTens = map[string]int{
	"twenty": 20,
	"thirty": 30,
}

var monthNames = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// weekdays is ordered Monday first so scans are deterministic.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// dayPeriods is checked in order; the first keyword present wins.
var dayPeriods = []string{"morning", "afternoon", "evening", "night"}

// genericLayouts are tried in order after ordinal suffixes and filler words are
// stripped. Components a layout lacks default to today's.
var genericLayouts = []struct {
	layout  string
	hasYear bool
	hasDay  bool
}{
	{"2006-01-02", true, true},
	{"2006/01/02", true, true},
	{"01/02/2006", true, true},
	{"1/2/2006", true, true},
	{time.RFC3339, true, true},
	{"January 2 2006", true, true},
	{"January 2, 2006", true, true},
	{"Jan 2 2006", true, true},
	{"Jan 2, 2006", true, true},
	{"2 January 2006", true, true},
	{"2 Jan 2006", true, true},
	{"Monday January 2 2006", true, true},
	{"Monday, January 2, 2006", true, true},
	{"January 2", false, true},
	{"Jan 2", false, true},
	{"2 January", false, true},
	{"2 Jan", false, true},
	{"January 2006", true, false},
	{"January", false, false},
}
