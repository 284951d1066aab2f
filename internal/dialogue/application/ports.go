// Package application drives the scheduling conversation: one utterance in,
// one state transition and one reply out.
package application

import (
	"context"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	scheduling "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// SlotFinder runs the availability search.
type SlotFinder interface {
	Handle(ctx context.Context, query queries.FindAvailableSlotsQuery) ([]scheduling.Slot, error)
}

// AlternativeFinder suggests other days and ranges after an empty search.
type AlternativeFinder interface {
	Handle(ctx context.Context, query queries.SuggestAlternativesQuery) ([]queries.Alternative, error)
}

// EventsOnDate answers "what do I have on ..." questions.
type EventsOnDate interface {
	Handle(ctx context.Context, date time.Time) (queries.EventsOnDateDTO, error)
}

// Booker creates calendar events.
type Booker interface {
	CreateEvent(ctx context.Context, summary string, start, end time.Time, timezone string) (calendarDomain.EventReference, error)
}

// UpcomingEvents lists events over the next horizonDays, used to resolve
// "before my meeting called ..." phrases.
type UpcomingEvents interface {
	ListEvents(ctx context.Context, horizonDays int) ([]calendarDomain.Event, error)
}

// ParameterExtractor reads intent and details from free text. It never fails.
type ParameterExtractor interface {
	ExtractParameters(ctx context.Context, utterance string) extraction.Parameters
}
