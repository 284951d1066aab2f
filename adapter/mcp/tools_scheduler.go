package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
)

type slotsInput struct {
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Date            string `json:"date,omitempty"`
	TimeRange       string `json:"time_range,omitempty"`
	HorizonDays     int    `json:"horizon_days,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

type alternativesInput struct {
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Date            string `json:"date,omitempty"`
}

type bookInput struct {
	Date            string `json:"date" jsonschema:"required"`
	Time            string `json:"time" jsonschema:"required"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Summary         string `json:"summary,omitempty"`
	Force           bool   `json:"force,omitempty"`
}

type eventsInput struct {
	Date string `json:"date,omitempty"`
}

type parseDateInput struct {
	Text string `json:"text" jsonschema:"required"`
}

type alternativeDTO struct {
	Date      string    `json:"date"`
	NextDay   bool      `json:"next_day,omitempty"`
	TimeRange string    `json:"time_range,omitempty"`
	Slots     []slotDTO `json:"slots"`
}

type eventDTO struct {
	ID      string `json:"id,omitempty"`
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
	AllDay  bool   `json:"all_day,omitempty"`
	Link    string `json:"link,omitempty"`
}

func registerSchedulerTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("scheduler.slots").
		Description("Find free meeting slots within working hours. date accepts YYYY-MM-DD or phrases like \"next friday\"; time_range accepts morning, afternoon, evening, night, HH:MM, before HH:MM, after HH:MM").
		Handler(slotsHandler(app))

	srv.Tool("scheduler.alternatives").
		Description("Suggest the next day and other parts of the day when a date has no free slot").
		Handler(alternativesHandler(app))

	srv.Tool("scheduler.book").
		Description("Book a meeting at an exact time. The start must be a free slot unless force is set").
		Handler(bookHandler(app))

	srv.Tool("scheduler.events").
		Description("List the calendar events on a day (default today)").
		Handler(eventsHandler(app))

	srv.Tool("scheduler.parse_date").
		Description("Resolve a spoken date and time phrase to a date and time range").
		Handler(parseDateHandler(app))

	return nil
}

func slotsHandler(app *cli.App) func(context.Context, slotsInput) (map[string]any, error) {
	return func(ctx context.Context, input slotsInput) (map[string]any, error) {
		if app.FindAvailableSlotsHandler == nil {
			return nil, errors.New("scheduling not configured")
		}
		date, err := parseDate(app, input.Date, time.Time{})
		if err != nil {
			return nil, err
		}
		timeRange, err := parseTimeRange(input.TimeRange)
		if err != nil {
			return nil, err
		}
		duration := durationOrDefault(app, input.DurationMinutes)

		slots, err := app.FindAvailableSlotsHandler.Handle(ctx, queries.FindAvailableSlotsQuery{
			DurationMinutes: duration,
			HorizonDays:     input.HorizonDays,
			PreferredDate:   date,
			TimeRange:       timeRange,
		})
		if err != nil {
			return nil, err
		}
		if input.Limit > 0 && len(slots) > input.Limit {
			slots = slots[:input.Limit]
		}

		result := map[string]any{
			"duration_minutes": duration,
			"slots":            toSlotDTOs(slots),
		}
		if !date.IsZero() {
			result["date"] = date.Format(dateLayout)
		}
		if !timeRange.IsAny() {
			result["time_range"] = timeRange.String()
		}
		return result, nil
	}
}

func alternativesHandler(app *cli.App) func(context.Context, alternativesInput) ([]alternativeDTO, error) {
	return func(ctx context.Context, input alternativesInput) ([]alternativeDTO, error) {
		if app.SuggestAlternativesHandler == nil {
			return nil, errors.New("scheduling not configured")
		}
		date, err := parseDate(app, input.Date, time.Time{})
		if err != nil {
			return nil, err
		}
		alternatives, err := app.SuggestAlternativesHandler.Handle(ctx, queries.SuggestAlternativesQuery{
			DurationMinutes: durationOrDefault(app, input.DurationMinutes),
			Date:            date,
		})
		if err != nil {
			return nil, err
		}

		out := make([]alternativeDTO, 0, len(alternatives))
		for _, alt := range alternatives {
			out = append(out, alternativeDTO{
				Date:      alt.Date.Format(dateLayout),
				NextDay:   alt.NextDay,
				TimeRange: alt.TimeRange.String(),
				Slots:     toSlotDTOs(alt.Slots),
			})
		}
		return out, nil
	}
}

func bookHandler(app *cli.App) func(context.Context, bookInput) (map[string]any, error) {
	return func(ctx context.Context, input bookInput) (map[string]any, error) {
		if app.Booker == nil {
			return nil, errors.New("calendar not configured")
		}
		if input.Date == "" {
			return nil, errors.New("date is required")
		}
		date, err := parseDate(app, input.Date, time.Time{})
		if err != nil {
			return nil, err
		}
		start, err := parseTimeOnDate(date, input.Time)
		if err != nil {
			return nil, err
		}
		duration := durationOrDefault(app, input.DurationMinutes)
		end := start.Add(time.Duration(duration) * time.Minute)

		if !input.Force && app.FindAvailableSlotsHandler != nil {
			at, _ := parseTimeRange(start.Format(timeLayout))
			slots, err := app.FindAvailableSlotsHandler.Handle(ctx, queries.FindAvailableSlotsQuery{
				DurationMinutes: duration,
				PreferredDate:   date,
				TimeRange:       at,
			})
			if err != nil {
				return nil, err
			}
			if len(slots) == 0 || !slots[0].Start.Equal(start) {
				return nil, fmt.Errorf("%s on %s is not free", start.Format(timeLayout), date.Format(dateLayout))
			}
		}

		summary := input.Summary
		if summary == "" {
			summary = app.MeetingSummary
		}
		ref, err := app.Booker.CreateEvent(ctx, summary, start, end, app.Location.String())
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"id":      ref.ID,
			"link":    ref.Link,
			"summary": summary,
			"start":   start.Format(time.RFC3339),
			"end":     end.Format(time.RFC3339),
		}, nil
	}
}

func eventsHandler(app *cli.App) func(context.Context, eventsInput) (map[string]any, error) {
	return func(ctx context.Context, input eventsInput) (map[string]any, error) {
		if app.ListEventsOnDateHandler == nil {
			return nil, errors.New("calendar not configured")
		}
		var today time.Time
		if app.Parser != nil {
			today = app.Parser.Today()
		}
		date, err := parseDate(app, input.Date, today)
		if err != nil {
			return nil, err
		}
		dto, err := app.ListEventsOnDateHandler.Handle(ctx, date)
		if err != nil {
			return nil, err
		}

		events := make([]eventDTO, len(dto.Events))
		for i, e := range dto.Events {
			events[i] = eventDTO{
				ID:      e.ID,
				Summary: e.Summary,
				Start:   e.Start.Format(time.RFC3339),
				End:     e.End.Format(time.RFC3339),
				AllDay:  e.AllDay,
				Link:    e.Link,
			}
		}
		return map[string]any{
			"date":   date.Format(dateLayout),
			"events": events,
		}, nil
	}
}

func parseDateHandler(app *cli.App) func(context.Context, parseDateInput) (map[string]any, error) {
	return func(ctx context.Context, input parseDateInput) (map[string]any, error) {
		if app.Parser == nil {
			return nil, errors.New("parser not configured")
		}
		if input.Text == "" {
			return nil, errors.New("text is required")
		}

		var current timeexpr.Constraint
		if date, ok := app.Parser.ParseRelativeDate(input.Text); ok {
			current.Date = date
		}
		constraint := app.Parser.ParseTimeConstraint(input.Text, nil, current)

		result := map[string]any{
			"text":       input.Text,
			"relational": timeexpr.HasRelationalConstraint(input.Text),
		}
		if constraint.HasDate() {
			result["date"] = constraint.Date.Format(dateLayout)
		}
		if constraint.TimeRange != "" {
			result["time_range"] = constraint.TimeRange
		}
		return result, nil
	}
}
