package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/application"
	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.June, day, hour, minute, 0, 0, ist)
}

type listCall struct {
	start time.Time
	end   time.Time
}

type fakeBackend struct {
	mu        sync.Mutex
	events    []domain.Event
	listErr   error
	createErr error
	lists     []listCall
	created   []domain.NewEvent
}

func (f *fakeBackend) ListEvents(_ context.Context, start, end time.Time) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, listCall{start: start, end: end})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Event(nil), f.events...), nil
}

func (f *fakeBackend) CreateEvent(_ context.Context, event domain.NewEvent) (domain.EventReference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.EventReference{}, f.createErr
	}
	f.created = append(f.created, event)
	f.events = append(f.events, domain.Event{ID: "new", Summary: event.Summary, Start: event.Start, End: event.End})
	return domain.EventReference{ID: "new", Link: "https://calendar.example/new"}, nil
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

type memorySnapshots struct {
	snapshot *application.Snapshot
	stores   int
	clears   int
}

func (m *memorySnapshots) Load(context.Context) (*application.Snapshot, error) {
	return m.snapshot, nil
}

func (m *memorySnapshots) Store(_ context.Context, s application.Snapshot, _ time.Duration) error {
	m.stores++
	m.snapshot = &s
	return nil
}

func (m *memorySnapshots) Clear(context.Context) error {
	m.clears++
	m.snapshot = nil
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
