package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

func registerHealthTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("health").
		Description("Check calendar, token store, cache and language model health").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			return healthReport(ctx, app)
		})

	return nil
}

func healthReport(ctx context.Context, app *cli.App) (map[string]any, error) {
	if app.Health == nil {
		return nil, errors.New("health checks not configured")
	}
	results := app.Health.Check(ctx)
	report := map[string]any{
		"status": observability.OverallStatus(results),
		"checks": results,
	}
	if app.Guard != nil {
		report["dependencies"] = app.Guard.Stats().All()
	}
	if app.Metrics != nil {
		report["timings"] = app.Metrics.Summaries()
	}
	return report, nil
}
