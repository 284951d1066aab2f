package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// parseDate accepts YYYY-MM-DD or a spoken phrase such as "next friday".
// An empty value yields fallback.
func parseDate(app *cli.App, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	if parsed, err := time.ParseInLocation(dateLayout, value, app.Location); err == nil {
		return parsed, nil
	}
	if app.Parser != nil {
		if date, ok := app.Parser.ParseRelativeDate(value); ok {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not understand the date %q", value)
}

// parseTimeOnDate accepts "HH:MM" or "H:MM am/pm".
func parseTimeOnDate(date time.Time, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("time is required")
	}
	clock, ok := timeexpr.ParseClock(value)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid time format, use HH:MM: %q", value)
	}
	parsed, err := time.Parse(timeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format, use HH:MM: %w", err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

func parseTimeRange(value string) (domain.TimeRange, error) {
	if value == "" {
		return domain.TimeRange{}, nil
	}
	r := domain.ParseTimeRange(value)
	if r.IsAny() {
		return r, fmt.Errorf("invalid time range %q", value)
	}
	return r, nil
}

func durationOrDefault(app *cli.App, minutes int) int {
	if minutes > 0 {
		return minutes
	}
	return app.DefaultDurationMinutes
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

func toSlotDTOs(slots []domain.Slot) []slotDTO {
	out := make([]slotDTO, len(slots))
	for i, s := range slots {
		out[i] = slotDTO{
			Start: s.Start.Format(time.RFC3339),
			End:   s.End.Format(time.RFC3339),
			Label: s.Label(),
		}
	}
	return out
}
