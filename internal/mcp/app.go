package mcp

import (
	"github.com/felixgeelhaar/slotwise/adapter/cli"
	"github.com/felixgeelhaar/slotwise/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cfg := container.Config
	return &cli.App{
		Location:                   container.Location,
		Parser:                     container.Parser,
		FindAvailableSlotsHandler:  container.FindAvailableSlotsHandler,
		SuggestAlternativesHandler: container.SuggestAlternativesHandler,
		ListEventsOnDateHandler:    container.ListEventsOnDateHandler,
		Provider:                   container.Provider,
		Booker:                     container.Gateway,
		Sessions:                   container.Sessions,
		NewAssistant:               container.NewAssistant,
		AuthService:                container.AuthService,
		Health:                     container.Health,
		Guard:                      container.Guard,
		Metrics:                    container.Metrics,
		DefaultDurationMinutes:     cfg.DefaultDurationMinutes,
		MeetingSummary:             cfg.MeetingSummary,
	}
}
