package application

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

// Backend is the calendar a Gateway reads from and books into.
type Backend interface {
	// ListEvents returns the events overlapping [start, end), ordered by start.
	ListEvents(ctx context.Context, start, end time.Time) ([]domain.Event, error)
	// CreateEvent books a new event and returns a reference to it.
	CreateEvent(ctx context.Context, event domain.NewEvent) (domain.EventReference, error)
}
