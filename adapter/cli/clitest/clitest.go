// Package clitest builds a CLI App over an in-memory calendar for command and
// tool tests.
package clitest

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	dialogueApp "github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	dialogueDomain "github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	dialogueInfra "github.com/felixgeelhaar/slotwise/internal/dialogue/infrastructure"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
	"github.com/felixgeelhaar/slotwise/internal/voice"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
)

// IST is the calendar timezone of every fixture.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Now is Wednesday, June 10 2026, 08:00 IST.
func Now() time.Time {
	return time.Date(2026, time.June, 10, 8, 0, 0, 0, IST)
}

// At returns a time on June day 2026 in IST.
func At(day, hour, minute int) time.Time {
	return time.Date(2026, time.June, day, hour, minute, 0, 0, IST)
}

// Calendar is an in-memory calendar backend.
type Calendar struct {
	mu      sync.Mutex
	Events  []calendarDomain.Event
	Created []calendarDomain.NewEvent
	Err     error
}

// WithStandup returns a calendar holding a 10:00-11:00 "Standup" on June 11.
func WithStandup() *Calendar {
	return &Calendar{Events: []calendarDomain.Event{
		{ID: "e1", Summary: "Standup", Start: At(11, 10, 0), End: At(11, 11, 0)},
	}}
}

func (c *Calendar) ListBusyIntervals(ctx context.Context, horizonDays int) ([]calendarDomain.BusyInterval, error) {
	events, err := c.ListEvents(ctx, horizonDays)
	if err != nil {
		return nil, err
	}
	return calendarDomain.BusyIntervals(events), nil
}

func (c *Calendar) ListEvents(ctx context.Context, horizonDays int) ([]calendarDomain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return append([]calendarDomain.Event(nil), c.Events...), nil
}

func (c *Calendar) EventsOn(ctx context.Context, date time.Time) ([]calendarDomain.Event, error) {
	events, err := c.ListEvents(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []calendarDomain.Event
	for _, e := range events {
		if e.Busy().Touches(date, IST) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, summary string, start, end time.Time, timezone string) (calendarDomain.EventReference, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return calendarDomain.EventReference{}, c.Err
	}
	c.Created = append(c.Created, calendarDomain.NewEvent{Summary: summary, Start: start, End: end, TimeZone: timezone})
	c.Events = append(c.Events, calendarDomain.Event{ID: "created", Summary: summary, Start: start, End: end})
	return calendarDomain.EventReference{ID: "evt-1", Link: "https://calendar.example/evt-1"}, nil
}

// NewApp wires every App field over calendar with the clock fixed at Now.
func NewApp(t *testing.T, calendar *Calendar) *cli.App {
	t.Helper()
	parser := timeexpr.NewParser(IST, timeexpr.WithClock(Now))
	slots := queries.NewFindAvailableSlotsHandler(calendar, queries.EngineConfig{
		WorkingHours: schedulingDomain.DefaultWorkingHours,
		SlotInterval: 15 * time.Minute,
		HorizonDays:  7,
		Location:     IST,
	}).WithClock(Now)
	alternatives := queries.NewSuggestAlternativesHandler(slots)
	events := queries.NewListEventsOnDateHandler(calendar)
	metrics := observability.NewInMemoryMetrics()

	machine := dialogueApp.NewMachine(dialogueApp.Dependencies{
		Parser:       parser,
		Slots:        slots,
		Alternatives: alternatives,
		Events:       events,
		Upcoming:     calendar,
		Booker:       calendar,
	}, dialogueApp.MachineConfig{MeetingSummary: "Scheduled Meeting"}, nil)

	return &cli.App{
		Location:                   IST,
		Parser:                     parser,
		FindAvailableSlotsHandler:  slots,
		SuggestAlternativesHandler: alternatives,
		ListEventsOnDateHandler:    events,
		Provider:                   calendarDomain.ProviderGoogle,
		Booker:                     calendar,
		Sessions:                   dialogueApp.NewSessionService(machine, dialogueInfra.NewMemorySessionStore(time.Minute), 60, nil),
		NewAssistant: func(in io.Reader, out io.Writer) *dialogueApp.Assistant {
			return dialogueApp.NewAssistant(
				machine,
				dialogueDomain.NewConversationState(60),
				voice.NewConsoleCapturer(in, io.Discard),
				voice.NewConsoleSpeaker(out, nil),
				nil,
				metrics,
				dialogueApp.AssistantConfig{},
				nil,
			)
		},
		Health:                 observability.NewHealthRegistry(),
		Guard:                  resilience.NewGuard(resilience.DefaultConfig(), resilience.NewStats(), nil),
		Metrics:                metrics,
		DefaultDurationMinutes: 30,
		MeetingSummary:         "Scheduled Meeting",
	}
}
