package queries

import (
	"context"
	"sort"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

// EventSource lists the calendar events touching one day.
type EventSource interface {
	EventsOn(ctx context.Context, date time.Time) ([]calendarDomain.Event, error)
}

// EventsOnDateDTO is the answer to "what do I have on ...".
type EventsOnDateDTO struct {
	Date   time.Time
	Events []calendarDomain.Event
}

// Summaries returns the event titles in start order.
func (d EventsOnDateDTO) Summaries() []string {
	out := make([]string, len(d.Events))
	for i, e := range d.Events {
		out[i] = e.Summary
	}
	return out
}

// ListEventsOnDateHandler answers date queries from the cached calendar.
type ListEventsOnDateHandler struct {
	events EventSource
}

// NewListEventsOnDateHandler creates a new ListEventsOnDateHandler.
func NewListEventsOnDateHandler(events EventSource) *ListEventsOnDateHandler {
	return &ListEventsOnDateHandler{events: events}
}

// Handle returns the events on date sorted by start time.
func (h *ListEventsOnDateHandler) Handle(ctx context.Context, date time.Time) (EventsOnDateDTO, error) {
	events, err := h.events.EventsOn(ctx, date)
	if err != nil {
		return EventsOnDateDTO{}, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return EventsOnDateDTO{Date: date, Events: events}, nil
}
