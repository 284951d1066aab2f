package timeexpr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relationalPattern = regexp.MustCompile(`\b(before|after)\s+(?:(?:my|the)\s+)?(?:meeting|event|appointment)\s+(?:(?:called|named|titled)\s+)?["']?([^"']+)`)
	clockPattern      = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	meridiemPattern   = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
)

// EventRef is the part of an existing calendar event a relational constraint
// ("before my meeting called standup") can anchor on.
type EventRef struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// Constraint is a date plus a time-range expression. A zero Date means no date
// preference; TimeRange is one of "morning", "afternoon", "evening", "night",
// "before HH:MM", "after HH:MM", "HH:MM" or empty.
type Constraint struct {
	Date      time.Time
	TimeRange string
}

// HasDate reports whether a date preference is set.
func (c Constraint) HasDate() bool {
	return !c.Date.IsZero()
}

// HasRelationalConstraint reports whether text anchors on another event.
func HasRelationalConstraint(text string) bool {
	return relationalPattern.MatchString(strings.ToLower(text))
}

// ParseTimeConstraint refines current with the constraints found in text. Each rule
// is independent and later rules override earlier ones: an event-relative phrase,
// then a weekday name, then a time-of-day keyword, then an explicit clock time.
func (p *Parser) ParseTimeConstraint(text string, events []EventRef, current Constraint) Constraint {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return current
	}

	if match := relationalPattern.FindStringSubmatch(text); match != nil {
		if ref, ok := bestMatch(strings.TrimSpace(match[2]), events); ok {
			if match[1] == "before" {
				start := ref.Start.In(p.timezone)
				current.Date = DateOf(start, p.timezone)
				current.TimeRange = "before " + start.Format("15:04")
			} else {
				end := ref.End.In(p.timezone)
				current.Date = DateOf(end, p.timezone)
				current.TimeRange = "after " + end.Format("15:04")
			}
		}
	}

	words := wordPattern.FindAllString(text, -1)
	for _, w := range words {
		if wd, ok := lookupWeekday(w); ok {
			current.Date = NextWeekday(p.Today(), wd)
			break
		}
	}

	if period, ok := DayPeriod(text); ok {
		current.TimeRange = period
	}

	if clock, ok := ParseClock(text); ok {
		current.TimeRange = clock
	}

	return current
}

// DayPeriod returns the first of morning, afternoon, evening or night found in text.
func DayPeriod(text string) (string, bool) {
	for _, period := range dayPeriods {
		if strings.Contains(text, period) {
			return period, true
		}
	}
	return "", false
}

// ParseClock finds a clock time such as "9:05", "3:30 pm" or "3pm" and returns
// it as a zero-padded 24-hour "HH:MM" string.
func ParseClock(text string) (string, bool) {
	minutes, ok := ClockMinutes(text)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), true
}

// ClockMinutes returns the first clock time in text as minutes after midnight.
// Minutes or an am/pm marker are required, so a bare "1" is not a time.
func ClockMinutes(text string) (int, bool) {
	text = strings.ToLower(text)

	var hour, minute int
	var meridiem string
	if match := clockPattern.FindStringSubmatch(text); match != nil {
		hour, _ = strconv.Atoi(match[1])
		minute, _ = strconv.Atoi(match[2])
		meridiem = match[3]
	} else if match := meridiemPattern.FindStringSubmatch(text); match != nil {
		hour, _ = strconv.Atoi(match[1])
		meridiem = match[2]
	} else {
		return 0, false
	}

	if meridiem != "" && (hour < 1 || hour > 12) {
		return 0, false
	}
	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour > 23 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// StripClocks blanks out clock times so their digits are not read as dates.
func StripClocks(text string) string {
	text = clockPattern.ReplaceAllString(text, " ")
	return meridiemPattern.ReplaceAllString(text, " ")
}

// bestMatch returns the event whose summary shares the most words with name.
// Ties keep the earliest event; no shared word means no match.
func bestMatch(name string, events []EventRef) (EventRef, bool) {
	wanted := make(map[string]struct{})
	for _, w := range strings.Fields(name) {
		wanted[w] = struct{}{}
	}

	var best EventRef
	bestScore := 0
	for _, ev := range events {
		seen := make(map[string]struct{})
		score := 0
		for _, w := range strings.Fields(strings.ToLower(ev.Summary)) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := wanted[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best = ev
			bestScore = score
		}
	}
	return best, bestScore > 0
}
