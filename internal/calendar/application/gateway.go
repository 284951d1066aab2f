package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

// Gateway is the booking gateway: cached reads of the calendar and event
// creation that invalidates the cache.
type Gateway struct {
	backend     Backend
	cache       *EventCache
	location    *time.Location
	horizonDays int
	now         func() time.Time
	logger      *slog.Logger
}

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Location *time.Location
	// HorizonDays is the default read window used by EventsOn.
	HorizonDays int
	Now         func() time.Time
}

// NewGateway creates a Gateway over backend.
func NewGateway(backend Backend, cache *EventCache, config GatewayConfig, logger *slog.Logger) *Gateway {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = 7
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if cache == nil {
		cache = NewEventCache(DefaultCacheTTL, logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		backend:     backend,
		cache:       cache,
		location:    config.Location,
		horizonDays: config.HorizonDays,
		now:         config.Now,
		logger:      logger,
	}
}

// Location returns the calendar timezone.
func (g *Gateway) Location() *time.Location {
	return g.location
}

func (g *Gateway) today() time.Time {
	now := g.now().In(g.location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.location)
}

// ListEvents returns the events from the start of today through horizonDays
// days, served from the cache while it is fresh.
func (g *Gateway) ListEvents(ctx context.Context, horizonDays int) ([]domain.Event, error) {
	if horizonDays <= 0 {
		horizonDays = g.horizonDays
	}
	return g.cache.Get(ctx, horizonDays, func(ctx context.Context, days int) ([]domain.Event, error) {
		start := g.today()
		events, err := g.backend.ListEvents(ctx, start, start.AddDate(0, 0, days))
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		return events, nil
	})
}

// ListBusyIntervals returns the busy intervals for the horizon.
func (g *Gateway) ListBusyIntervals(ctx context.Context, horizonDays int) ([]domain.BusyInterval, error) {
	events, err := g.ListEvents(ctx, horizonDays)
	if err != nil {
		return nil, err
	}
	return domain.BusyIntervals(events), nil
}

// EventsOn returns the events touching date. Dates inside the default horizon
// are answered from the cache; others are read directly for that day.
func (g *Gateway) EventsOn(ctx context.Context, date time.Time) ([]domain.Event, error) {
	date = date.In(g.location)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, g.location)
	ahead := civilDays(g.today(), day)

	var events []domain.Event
	var err error
	if ahead >= 0 && ahead < g.horizonDays {
		events, err = g.ListEvents(ctx, g.horizonDays)
	} else {
		events, err = g.backend.ListEvents(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			err = fmt.Errorf("list events on %s: %w", day.Format("2006-01-02"), err)
		}
	}
	if err != nil {
		return nil, err
	}

	var out []domain.Event
	for _, e := range events {
		if e.Busy().Touches(day, g.location) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateEvent books [start, end) and invalidates the cache on success. There
// is no retry; a failure leaves the cache untouched.
func (g *Gateway) CreateEvent(ctx context.Context, summary string, start, end time.Time, timezone string) (domain.EventReference, error) {
	if timezone == "" {
		timezone = g.location.String()
	}
	event := domain.NewEvent{
		Summary:  summary,
		Start:    start,
		End:      end,
		TimeZone: timezone,
	}
	if err := event.Validate(); err != nil {
		return domain.EventReference{}, err
	}

	ref, err := g.backend.CreateEvent(ctx, event)
	if err != nil {
		return domain.EventReference{}, fmt.Errorf("create event: %w", err)
	}
	g.cache.Invalidate(ctx)

	g.logger.Info("event created",
		"event_id", ref.ID,
		"start", start.Format(time.RFC3339),
		"end", end.Format(time.RFC3339),
	)
	return ref, nil
}

// Invalidate forces the next read to hit the backend.
func (g *Gateway) Invalidate(ctx context.Context) {
	g.cache.Invalidate(ctx)
}

// CacheFetchedAt reports when the cached event list was fetched.
func (g *Gateway) CacheFetchedAt() time.Time {
	return g.cache.FetchedAt()
}

func civilDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}
