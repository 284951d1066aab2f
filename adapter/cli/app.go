package cli

import (
	"context"
	"io"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	dialogueApp "github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	scheduleQueries "github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

// Booker creates calendar events.
type Booker interface {
	CreateEvent(ctx context.Context, summary string, start, end time.Time, timezone string) (calendarDomain.EventReference, error)
}

// AssistantFactory builds a dialogue loop over the given streams.
type AssistantFactory func(in io.Reader, out io.Writer) *dialogueApp.Assistant

// App holds the CLI application dependencies.
type App struct {
	Location *time.Location
	Parser   *timeexpr.Parser

	// Scheduling Query Handlers
	FindAvailableSlotsHandler  *scheduleQueries.FindAvailableSlotsHandler
	SuggestAlternativesHandler *scheduleQueries.SuggestAlternativesHandler
	ListEventsOnDateHandler    *scheduleQueries.ListEventsOnDateHandler

	// Calendar
	Provider calendarDomain.ProviderType
	Booker   Booker

	// Dialogue
	Sessions     *dialogueApp.SessionService
	NewAssistant AssistantFactory

	// Identity
	AuthService *identityOAuth.Service

	// Observability
	Health  *observability.HealthRegistry
	Guard   *resilience.Guard
	Metrics *observability.InMemoryMetrics

	DefaultDurationMinutes int
	MeetingSummary         string
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
