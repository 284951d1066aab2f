package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
)

// BreakerBackend guards another Backend with a circuit breaker. While the
// breaker is open calls fail fast with domain.ErrBackendUnavailable.
type BreakerBackend struct {
	inner Backend
	guard *resilience.Guard
	name  string
}

// NewBreakerBackend wraps inner. name identifies the breaker, usually the provider.
func NewBreakerBackend(inner Backend, guard *resilience.Guard, name string) *BreakerBackend {
	return &BreakerBackend{inner: inner, guard: guard, name: name}
}

// ListEvents implements Backend.
func (b *BreakerBackend) ListEvents(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	result, err := b.guard.Do(ctx, b.name, "list_events", func(ctx context.Context) (any, error) {
		return b.inner.ListEvents(ctx, start, end)
	})
	if err != nil {
		return nil, b.translate(err)
	}
	events, _ := result.([]domain.Event)
	return events, nil
}

// CreateEvent implements Backend.
func (b *BreakerBackend) CreateEvent(ctx context.Context, event domain.NewEvent) (domain.EventReference, error) {
	result, err := b.guard.Do(ctx, b.name, "create_event", func(ctx context.Context) (any, error) {
		return b.inner.CreateEvent(ctx, event)
	})
	if err != nil {
		return domain.EventReference{}, b.translate(err)
	}
	ref, _ := result.(domain.EventReference)
	return ref, nil
}

func (b *BreakerBackend) translate(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %s circuit open", domain.ErrBackendUnavailable, b.name)
	}
	return err
}
