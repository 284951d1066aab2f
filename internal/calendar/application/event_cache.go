package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

// DefaultCacheTTL is how long a fetched event list is reused.
const DefaultCacheTTL = 30 * time.Second

// Snapshot is one fetched event list.
type Snapshot struct {
	Events      []domain.Event `json:"events"`
	FetchedAt   time.Time      `json:"fetched_at"`
	HorizonDays int            `json:"horizon_days"`
}

// SnapshotStore mirrors the cache outside the process so several processes
// reading the same calendar share one fetch.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Store(ctx context.Context, snapshot Snapshot, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// FetchFunc loads events for horizonDays days starting today.
type FetchFunc func(ctx context.Context, horizonDays int) ([]domain.Event, error)

// EventCache holds the last fetched event list. Check-and-refresh and
// invalidation are serialised so a stale read never races a refresh.
type EventCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	snapshot *Snapshot
	mirror   SnapshotStore
	now      func() time.Time
	logger   *slog.Logger
}

// EventCacheOption configures an EventCache.
type EventCacheOption func(*EventCache)

// WithSnapshotStore mirrors snapshots into store.
func WithSnapshotStore(store SnapshotStore) EventCacheOption {
	return func(c *EventCache) { c.mirror = store }
}

// WithCacheClock overrides the cache clock.
func WithCacheClock(now func() time.Time) EventCacheOption {
	return func(c *EventCache) { c.now = now }
}

// NewEventCache creates an empty cache. A non-positive ttl uses DefaultCacheTTL.
func NewEventCache(ttl time.Duration, logger *slog.Logger, opts ...EventCacheOption) *EventCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &EventCache{
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns cached events when a snapshot covering horizonDays is younger
// than the TTL, otherwise it calls fetch and replaces the snapshot wholesale.
func (c *EventCache) Get(ctx context.Context, horizonDays int, fetch FetchFunc) ([]domain.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fresh(c.snapshot, horizonDays) {
		return c.snapshot.Events, nil
	}

	if c.mirror != nil {
		mirrored, err := c.mirror.Load(ctx)
		if err != nil {
			c.logger.Warn("event cache mirror load failed", "error", err)
		} else if c.fresh(mirrored, horizonDays) {
			c.snapshot = mirrored
			return mirrored.Events, nil
		}
	}

	events, err := fetch(ctx, horizonDays)
	if err != nil {
		return nil, err
	}

	c.snapshot = &Snapshot{
		Events:      events,
		FetchedAt:   c.now(),
		HorizonDays: horizonDays,
	}
	c.logger.Debug("event cache refreshed", "events", len(events), "horizon_days", horizonDays)

	if c.mirror != nil {
		if err := c.mirror.Store(ctx, *c.snapshot, c.ttl); err != nil {
			c.logger.Warn("event cache mirror store failed", "error", err)
		}
	}
	return events, nil
}

func (c *EventCache) fresh(s *Snapshot, horizonDays int) bool {
	if s == nil || s.HorizonDays < horizonDays {
		return false
	}
	age := c.now().Sub(s.FetchedAt)
	return age >= 0 && age < c.ttl
}

// Invalidate drops the snapshot so the next Get refetches.
func (c *EventCache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshot = nil
	if c.mirror != nil {
		if err := c.mirror.Clear(ctx); err != nil {
			c.logger.Warn("event cache mirror clear failed", "error", err)
		}
	}
}

// FetchedAt returns when the current snapshot was fetched, or the zero time.
func (c *EventCache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return time.Time{}
	}
	return c.snapshot.FetchedAt
}
