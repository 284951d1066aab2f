package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
)

// RegisterResources registers MCP resources that expose calendar data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.App == nil {
		return fmt.Errorf("app is required")
	}
	app := deps.App

	srv.Resource("slotwise://events/today").
		Name("Today's Events").
		Description("Calendar events on the current day").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			events, err := eventsHandler(app)(ctx, eventsInput{})
			if err != nil {
				return nil, err
			}
			return jsonContent(uri, events)
		})

	srv.Resource("slotwise://slots/today").
		Name("Today's Free Slots").
		Description("Free slots of the default meeting length on the current day").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app.FindAvailableSlotsHandler == nil || app.Parser == nil {
				return nil, fmt.Errorf("scheduling not configured")
			}
			slots, err := app.FindAvailableSlotsHandler.Handle(ctx, queries.FindAvailableSlotsQuery{
				DurationMinutes: app.DefaultDurationMinutes,
				PreferredDate:   app.Parser.Today(),
			})
			if err != nil {
				return nil, err
			}
			return jsonContent(uri, map[string]any{
				"date":             app.Parser.Today().Format(dateLayout),
				"duration_minutes": app.DefaultDurationMinutes,
				"slots":            toSlotDTOs(slots),
			})
		})

	srv.Resource("slotwise://health").
		Name("Health").
		Description("Dependency health, circuit breaker states and turn timings").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			report, err := healthReport(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonContent(uri, report)
		})

	srv.Resource("slotwise://settings").
		Name("Settings").
		Description("Calendar provider, timezone and meeting defaults").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonContent(uri, settings(app))
		})

	return nil
}

func settings(app *cli.App) map[string]any {
	out := map[string]any{
		"provider":                 app.Provider.String(),
		"default_duration_minutes": app.DefaultDurationMinutes,
		"meeting_summary":          app.MeetingSummary,
		"now":                      time.Now().Format(time.RFC3339),
	}
	if app.Location != nil {
		out["timezone"] = app.Location.String()
	}
	if app.FindAvailableSlotsHandler != nil {
		cfg := app.FindAvailableSlotsHandler.Config()
		out["working_hours"] = map[string]int{"start": cfg.WorkingHours.StartHour, "end": cfg.WorkingHours.EndHour}
		out["slot_interval"] = cfg.SlotInterval.String()
		out["horizon_days"] = cfg.HorizonDays
	}
	return out
}

func jsonContent(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
