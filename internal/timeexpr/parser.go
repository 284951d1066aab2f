// Package timeexpr turns spoken English date and time phrases into calendar dates
// and time-range constraints.
package timeexpr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	digitsPattern        = regexp.MustCompile(`\d+`)
	yearPattern          = regexp.MustCompile(`\b(20\d{2})\b`)
	ordinalSuffixPattern = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)
	wordPattern          = regexp.MustCompile(`[a-z]+`)
)

// fillerWords are dropped before generic layout parsing.
var fillerWords = map[string]bool{
	"on":  true,
	"at":  true,
	"of":  true,
	"and": true,
}

// Parser parses natural language date expressions relative to a clock.
type Parser struct {
	timezone *time.Location
	now      func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the clock used to resolve relative expressions.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// NewParser creates a parser that resolves dates in the given timezone.
func NewParser(timezone *time.Location, opts ...Option) *Parser {
	if timezone == nil {
		timezone = time.Local
	}
	p := &Parser{
		timezone: timezone,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Location returns the parser timezone.
func (p *Parser) Location() *time.Location {
	return p.timezone
}

// Today returns midnight of the current day in the parser timezone.
func (p *Parser) Today() time.Time {
	return DateOf(p.now(), p.timezone)
}

// DateOf truncates t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// NextWeekday returns the next occurrence of wd strictly after from.
// When from already falls on wd the result is one week later.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	ahead := (int(wd) - int(from.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return from.AddDate(0, 0, ahead)
}

// ParseRelativeDate resolves a phrase such as "tomorrow", "next friday" or
// "twenty fourth june" to a date at midnight in the parser timezone.
// The boolean is false when nothing could be resolved.
func (p *Parser) ParseRelativeDate(text string) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return time.Time{}, false
	}
	today := p.Today()

	if date, ok := parseKeyword(text, today); ok {
		return date, true
	}
	for _, wd := range weekdays {
		if strings.Contains(text, "next "+wd.name) {
			return NextWeekday(today, wd.day), true
		}
	}
	if date, ok := p.parseOrdinalMonth(text, today); ok {
		return date, true
	}
	if date, ok := p.parseGeneric(text, today); ok {
		return date, true
	}
	return p.parseDigits(text, today)
}

func parseKeyword(text string, today time.Time) (time.Time, bool) {
	switch text {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	switch {
	case strings.Contains(text, "next week"):
		return today.AddDate(0, 0, 7), true
	case strings.Contains(text, "last week"):
		return today.AddDate(0, 0, -7), true
	case strings.Contains(text, "next month"):
		return time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location()), true
	case strings.Contains(text, "last month"):
		return time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location()), true
	}
	return time.Time{}, false
}

// parseOrdinalMonth handles "twenty fourth june" and "june third". Compound ordinals
// consume both words so "thirty first" never also yields "first".
func (p *Parser) parseOrdinalMonth(text string, today time.Time) (time.Time, bool) {
	words := wordPattern.FindAllString(text, -1)
	month, ok := firstMonth(words)
	if !ok {
		return time.Time{}, false
	}

	for _, day := range ordinalDays(words) {
		date := time.Date(today.Year(), month, day, 0, 0, 0, 0, p.timezone)
		if validDate(date, today.Year(), month, day) {
			return date, true
		}
	}
	return time.Time{}, false
}

func ordinalDays(words []string) []int {
	var days []int
	for i := 0; i < len(words); i++ {
		if tens, ok := ordinalTens[words[i]]; ok && i+1 < len(words) {
			if unit, ok := unitOrdinals[words[i+1]]; ok {
				days = append(days, tens+unit)
				i++
				continue
			}
		}
		if day, ok := unitOrdinals[words[i]]; ok {
			days = append(days, day)
			continue
		}
		if day, ok := simpleOrdinals[words[i]]; ok {
			days = append(days, day)
		}
	}
	return days
}

func firstMonth(words []string) (time.Month, bool) {
	for _, w := range words {
		if m, ok := monthNames[w]; ok {
			return m, true
		}
	}
	return 0, false
}

func (p *Parser) parseGeneric(text string, today time.Time) (time.Time, bool) {
	normalized := normalizeForLayouts(text)
	if normalized == "" {
		return time.Time{}, false
	}

	if wd, ok := lookupWeekday(normalized); ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, ahead), true
	}

	for _, candidate := range genericLayouts {
		parsed, err := time.ParseInLocation(candidate.layout, normalized, p.timezone)
		if err != nil {
			continue
		}
		year, month, day := parsed.Date()
		if !candidate.hasYear {
			year = today.Year()
		}
		if !candidate.hasDay {
			day = today.Day()
		}
		date := time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
		if !validDate(date, year, month, day) {
			continue
		}
		return date, true
	}
	return time.Time{}, false
}

func normalizeForLayouts(text string) string {
	text = ordinalSuffixPattern.ReplaceAllString(text, "$1")
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if fillerWords[f] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// parseDigits is the last resort: the first number is the day, an optional month
// name and 20xx year override the current month and year.
func (p *Parser) parseDigits(text string, today time.Time) (time.Time, bool) {
	first := digitsPattern.FindString(text)
	if first == "" {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(first)
	if err != nil {
		return time.Time{}, false
	}

	year, month := today.Year(), today.Month()
	if m, ok := firstMonth(wordPattern.FindAllString(text, -1)); ok {
		month = m
	}
	if match := yearPattern.FindStringSubmatch(text); match != nil {
		year, _ = strconv.Atoi(match[1])
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, p.timezone)
	if !validDate(date, year, month, day) {
		return time.Time{}, false
	}
	return date, true
}

func lookupWeekday(word string) (time.Weekday, bool) {
	for _, wd := range weekdays {
		if wd.name == word {
			return wd.day, true
		}
	}
	return 0, false
}

// validDate reports whether time.Date kept the requested fields without normalizing.
func validDate(date time.Time, year int, month time.Month, day int) bool {
	y, m, d := date.Date()
	return day > 0 && y == year && m == month && d == day
}
