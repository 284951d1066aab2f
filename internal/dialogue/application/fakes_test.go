package application_test

import (
	"context"
	"sync"
	"time"

	calendarApp "github.com/felixgeelhaar/slotwise/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

// Wednesday, 10 June 2026, 10:00 IST.
func fixedNow() time.Time {
	return time.Date(2026, time.June, 10, 10, 0, 0, 0, ist)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.June, day, hour, minute, 0, 0, ist)
}

func slotAt(day, hour, minute, length int) scheduling.Slot {
	start := at(day, hour, minute)
	return scheduling.Slot{Start: start, End: start.Add(time.Duration(length) * time.Minute)}
}

type fakeBackend struct {
	mu        sync.Mutex
	events    []calendarDomain.Event
	createErr error
	lists     int
	created   []calendarDomain.NewEvent
}

func (f *fakeBackend) ListEvents(_ context.Context, _, _ time.Time) ([]calendarDomain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]calendarDomain.Event(nil), f.events...), nil
}

func (f *fakeBackend) CreateEvent(_ context.Context, event calendarDomain.NewEvent) (calendarDomain.EventReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return calendarDomain.EventReference{}, f.createErr
	}
	f.created = append(f.created, event)
	f.events = append(f.events, calendarDomain.Event{ID: "evt-1", Summary: event.Summary, Start: event.Start, End: event.End})
	return calendarDomain.EventReference{ID: "evt-1", Link: "https://calendar.example/evt-1"}, nil
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

type fakeExtractor struct {
	params extraction.Parameters
	calls  []string
}

func (f *fakeExtractor) ExtractParameters(_ context.Context, utterance string) extraction.Parameters {
	f.calls = append(f.calls, utterance)
	return f.params
}

type stubSlots struct {
	slots   []scheduling.Slot
	err     error
	queries []queries.FindAvailableSlotsQuery
}

func (s *stubSlots) Handle(_ context.Context, query queries.FindAvailableSlotsQuery) ([]scheduling.Slot, error) {
	s.queries = append(s.queries, query)
	return s.slots, s.err
}

func (s *stubSlots) last() queries.FindAvailableSlotsQuery {
	return s.queries[len(s.queries)-1]
}

type stubBooker struct {
	err   error
	calls []calendarDomain.NewEvent
}

func (b *stubBooker) CreateEvent(_ context.Context, summary string, start, end time.Time, timezone string) (calendarDomain.EventReference, error) {
	b.calls = append(b.calls, calendarDomain.NewEvent{Summary: summary, Start: start, End: end, TimeZone: timezone})
	if b.err != nil {
		return calendarDomain.EventReference{}, b.err
	}
	return calendarDomain.EventReference{ID: "abc", Link: "https://calendar.example/abc"}, nil
}

type stubEvents struct {
	events []calendarDomain.Event
	err    error
}

func (s *stubEvents) Handle(_ context.Context, date time.Time) (queries.EventsOnDateDTO, error) {
	return queries.EventsOnDateDTO{Date: date, Events: s.events}, s.err
}

type stubUpcoming struct {
	events []calendarDomain.Event
	calls  int
}

func (s *stubUpcoming) ListEvents(context.Context, int) ([]calendarDomain.Event, error) {
	s.calls++
	return s.events, nil
}

func testParser() *timeexpr.Parser {
	return timeexpr.NewParser(ist, timeexpr.WithClock(fixedNow))
}

// stack is a Machine over the real gateway and availability engine.
type stack struct {
	backend *fakeBackend
	gateway *calendarApp.Gateway
	machine *application.Machine
}

func newStack(backend *fakeBackend, extractor application.ParameterExtractor) *stack {
	cache := calendarApp.NewEventCache(30*time.Second, nil, calendarApp.WithCacheClock(fixedNow))
	gateway := calendarApp.NewGateway(backend, cache, calendarApp.GatewayConfig{
		Location:    ist,
		HorizonDays: 7,
		Now:         fixedNow,
	}, nil)

	finder := queries.NewFindAvailableSlotsHandler(gateway, queries.DefaultEngineConfig(ist)).WithClock(fixedNow)
	machine := application.NewMachine(application.Dependencies{
		Parser:       testParser(),
		Slots:        finder,
		Alternatives: queries.NewSuggestAlternativesHandler(finder),
		Events:       queries.NewListEventsOnDateHandler(gateway),
		Upcoming:     gateway,
		Booker:       gateway,
		Extractor:    extractor,
	}, application.MachineConfig{}, nil)

	return &stack{backend: backend, gateway: gateway, machine: machine}
}
