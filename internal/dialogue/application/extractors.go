package application

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	dialogueDomain "github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
)

var (
	durationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(hours?|hrs?|h|minutes?|mins?|m)\b`)
	numberPattern   = regexp.MustCompile(`\d+`)
	tokenPattern    = regexp.MustCompile(`[a-z0-9]+`)
)

var (
	affirmativeTokens = tokenSet("yes", "yeah", "yep", "confirm", "confirmed", "sure", "ok", "okay")
	negativeTokens    = tokenSet("no", "nope", "cancel")
	exitTokens        = tokenSet("exit", "quit")

	// Ordinals are checked before cardinals so "the second one" picks the second slot.
	ordinalTokens = []map[string]bool{
		tokenSet("first", "1st"),
		tokenSet("second", "2nd"),
	}
	cardinalTokens = []map[string]bool{
		tokenSet("one", "1"),
		tokenSet("two", "2"),
	}

	// durationWords are scanned in order; longer phrases come first.
	durationWords = []struct {
		phrase  string
		minutes int
	}{
		{"half an hour", 30},
		{"half hour", 30},
		{"two hours", 120},
		{"one hour", 60},
		{"an hour", 60},
	}

	dayKeywords = map[string]int{
		"today":    0,
		"tomorrow": 1,
	}
)

func tokenSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func containsToken(text string, set map[string]bool) bool {
	for _, tok := range tokens(text) {
		if set[tok] {
			return true
		}
	}
	return false
}

// WantsToSchedule reports whether the utterance asks for a meeting.
func WantsToSchedule(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "schedule") || strings.Contains(text, "meeting")
}

// IsAffirmative reports whether the utterance contains a yes.
func IsAffirmative(text string) bool {
	return containsToken(text, affirmativeTokens)
}

// IsNegative reports whether the utterance contains a no.
func IsNegative(text string) bool {
	return containsToken(text, negativeTokens)
}

// IsExit reports whether the user wants to leave the conversation.
func IsExit(text string) bool {
	return containsToken(text, exitTokens)
}

// ParseDuration reads a meeting length in minutes. A number with an hour unit
// is multiplied by 60; a bare number is taken as minutes. Lengths over
// dialogueDomain.MaxDurationMinutes are not recognised.
func ParseDuration(text string) (int, bool) {
	text = strings.ToLower(text)

	if match := durationPattern.FindStringSubmatch(text); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, false
		}
		if strings.HasPrefix(match[2], "h") {
			value *= 60
		}
		if value > dialogueDomain.MaxDurationMinutes {
			return 0, false
		}
		minutes := int(math.Round(value))
		return minutes, minutes > 0
	}

	if first := numberPattern.FindString(text); first != "" {
		minutes, err := strconv.Atoi(first)
		if err != nil || minutes > dialogueDomain.MaxDurationMinutes {
			return 0, false
		}
		return minutes, minutes > 0
	}

	for _, w := range durationWords {
		if strings.Contains(text, w.phrase) {
			return w.minutes, true
		}
	}
	return 0, false
}

// matchClock finds a spoken clock time.
func matchClock(text string) (hour, minute int, ok bool) {
	minutes, ok := timeexpr.ClockMinutes(text)
	return minutes / 60, minutes % 60, ok
}

// unofferedTimeError is returned when the user names a clock time that is
// not among the offered slots.
type unofferedTimeError struct {
	hour   int
	minute int
}

func (e *unofferedTimeError) Error() string {
	return fmt.Sprintf("%02d:%02d was not offered", e.hour, e.minute)
}

func (e *unofferedTimeError) Unwrap() error {
	return dialogueDomain.ErrSlotNotOffered
}

// SelectSlot picks the slot the user chose, by clock time or by position.
// A recognised clock time that matches no slot is not retried as a position.
func SelectSlot(text string, slots []scheduling.Slot) (scheduling.Slot, error) {
	if hour, minute, ok := matchClock(text); ok {
		for _, slot := range slots {
			if slot.Matches(hour, minute) {
				return slot, nil
			}
		}
		return scheduling.Slot{}, &unofferedTimeError{hour: hour, minute: minute}
	}

	for _, groups := range [][]map[string]bool{ordinalTokens, cardinalTokens} {
		for idx, set := range groups {
			if containsToken(text, set) && idx < len(slots) {
				return slots[idx], nil
			}
		}
	}
	return scheduling.Slot{}, ErrNotUnderstood
}

// dayKeywordDate resolves today, tomorrow or a weekday name against today.
func dayKeywordDate(text string, today time.Time) (time.Time, bool) {
	for _, tok := range tokens(text) {
		if offset, ok := dayKeywords[tok]; ok {
			return today.AddDate(0, 0, offset), true
		}
	}
	for _, tok := range tokens(text) {
		for _, wd := range []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
			time.Friday, time.Saturday, time.Sunday,
		} {
			if tok == strings.ToLower(wd.String()) {
				return timeexpr.NextWeekday(today, wd), true
			}
		}
	}
	return time.Time{}, false
}

// periodKeyword returns the first of morning, afternoon or evening in text.
func periodKeyword(text string) (scheduling.TimeRange, bool) {
	for _, period := range scheduling.Periods {
		if containsToken(text, tokenSet(period.String())) {
			return period, true
		}
	}
	return scheduling.TimeRange{}, false
}

// rangeFromText reads a range from extracted parameters, which may be a
// canonical range, a period word inside a phrase or a clock time.
func rangeFromText(text string) scheduling.TimeRange {
	text = strings.ToLower(strings.TrimSpace(text))
	if r := scheduling.ParseTimeRange(text); !r.IsAny() {
		return r
	}
	if period, ok := timeexpr.DayPeriod(text); ok {
		return scheduling.ParseTimeRange(period)
	}
	if clock, ok := timeexpr.ParseClock(text); ok {
		return scheduling.ParseTimeRange(clock)
	}
	return scheduling.TimeRange{}
}
