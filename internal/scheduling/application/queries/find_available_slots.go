package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
)

// ErrInvalidDuration is returned for a duration that is not positive or does
// not fit in the working day.
var ErrInvalidDuration = errors.New("meeting duration must be positive and fit in the working day")

// BusyIntervalSource supplies busy intervals starting today for the given number of days.
type BusyIntervalSource interface {
	ListBusyIntervals(ctx context.Context, horizonDays int) ([]calendarDomain.BusyInterval, error)
}

// EngineConfig holds the fixed parameters of the slot search.
type EngineConfig struct {
	WorkingHours domain.WorkingHours
	SlotInterval time.Duration
	HorizonDays  int
	Location     *time.Location
	// ExcludePast drops candidates that start before the current instant.
	ExcludePast bool
}

// DefaultEngineConfig mirrors the application defaults.
func DefaultEngineConfig(loc *time.Location) EngineConfig {
	return EngineConfig{
		WorkingHours: domain.DefaultWorkingHours,
		SlotInterval: 15 * time.Minute,
		HorizonDays:  7,
		Location:     loc,
	}
}

// FindAvailableSlotsQuery contains the parameters for finding available slots.
type FindAvailableSlotsQuery struct {
	DurationMinutes int
	// HorizonDays overrides the configured horizon when positive.
	HorizonDays int
	// PreferredDate restricts the search to one day when non-zero.
	PreferredDate time.Time
	TimeRange     domain.TimeRange
}

// FindAvailableSlotsHandler produces conflict-free meeting starts.
type FindAvailableSlotsHandler struct {
	source BusyIntervalSource
	config EngineConfig
	now    func() time.Time
}

// NewFindAvailableSlotsHandler creates a new FindAvailableSlotsHandler.
func NewFindAvailableSlotsHandler(source BusyIntervalSource, config EngineConfig) *FindAvailableSlotsHandler {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.SlotInterval <= 0 {
		config.SlotInterval = 15 * time.Minute
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = 7
	}
	return &FindAvailableSlotsHandler{
		source: source,
		config: config,
		now:    time.Now,
	}
}

// WithClock overrides the handler clock, for tests.
func (h *FindAvailableSlotsHandler) WithClock(now func() time.Time) *FindAvailableSlotsHandler {
	h.now = now
	return h
}

// Config returns the engine configuration in use.
func (h *FindAvailableSlotsHandler) Config() EngineConfig {
	return h.config
}

// Handle executes the FindAvailableSlotsQuery. Slots come back in date order,
// then time order.
func (h *FindAvailableSlotsHandler) Handle(ctx context.Context, query FindAvailableSlotsQuery) ([]domain.Slot, error) {
	if query.DurationMinutes <= 0 || query.DurationMinutes > h.config.WorkingHours.Minutes() {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, query.DurationMinutes)
	}
	horizon := query.HorizonDays
	if horizon <= 0 {
		horizon = h.config.HorizonDays
	}

	now := h.now().In(h.config.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, h.config.Location)

	dates := make([]time.Time, 0, horizon)
	fetchDays := horizon
	if !query.PreferredDate.IsZero() {
		preferred := query.PreferredDate.In(h.config.Location)
		preferred = time.Date(preferred.Year(), preferred.Month(), preferred.Day(), 0, 0, 0, 0, h.config.Location)
		dates = append(dates, preferred)
		if ahead := daysBetween(today, preferred) + 1; ahead > fetchDays {
			fetchDays = ahead
		}
	} else {
		for i := 0; i < horizon; i++ {
			dates = append(dates, today.AddDate(0, 0, i))
		}
	}

	busy, err := h.source.ListBusyIntervals(ctx, fetchDays)
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}

	duration := time.Duration(query.DurationMinutes) * time.Minute
	var slots []domain.Slot
	for _, date := range dates {
		slots = append(slots, h.slotsOn(date, duration, query.TimeRange, busy, now)...)
	}
	return slots, nil
}

func (h *FindAvailableSlotsHandler) slotsOn(
	date time.Time,
	duration time.Duration,
	rng domain.TimeRange,
	busy []calendarDomain.BusyInterval,
	now time.Time,
) []domain.Slot {
	workStart, workEnd := h.config.WorkingHours.Window(date, h.config.Location)
	start, end := rng.Clamp(workStart, workEnd)
	if !start.Before(end) {
		return nil
	}
	if rng.GridAligned() {
		start = alignUp(workStart, start, h.config.SlotInterval)
	}

	var touching []calendarDomain.BusyInterval
	for _, b := range busy {
		if b.Touches(date, h.config.Location) {
			touching = append(touching, b)
		}
	}

	var slots []domain.Slot
	for cur := start; !cur.Add(duration).After(end); cur = cur.Add(h.config.SlotInterval) {
		if h.config.ExcludePast && cur.Before(now) {
			continue
		}
		if conflicts(touching, cur, cur.Add(duration)) {
			continue
		}
		slots = append(slots, domain.Slot{Start: cur, End: cur.Add(duration)})
	}
	return slots
}

func conflicts(busy []calendarDomain.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Conflicts(start, end) {
			return true
		}
	}
	return false
}

// alignUp rounds t up to the next grid step counted from origin.
func alignUp(origin, t time.Time, step time.Duration) time.Time {
	offset := t.Sub(origin)
	if rem := offset % step; rem != 0 {
		offset += step - rem
	}
	return origin.Add(offset)
}

func daysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
