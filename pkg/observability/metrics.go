package observability

import (
	"sort"
	"sync"
	"time"
)

// Metrics records counters and timings.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a key-value pair for metric labeling.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(name string, value int64, tags ...Tag)           {}
func (NoopMetrics) Timing(name string, duration time.Duration, tags ...Tag) {}

// InMemoryMetrics keeps metrics for the lifetime of the process.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := formatKey(name, tags)
	m.timings[key] = append(m.timings[key], duration)
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// GetTimings returns all recorded timings.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.timings[formatKey(name, tags)]...)
}

// TimingSummary aggregates one timing series.
type TimingSummary struct {
	Key   string        `json:"key"`
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	Max   time.Duration `json:"max"`
}

// Summaries returns one entry per timing series, sorted by key.
func (m *InMemoryMetrics) Summaries() []TimingSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]TimingSummary, 0, len(m.timings))
	for key, values := range m.timings {
		s := TimingSummary{Key: key, Count: len(values)}
		var total time.Duration
		for _, v := range values {
			total += v
			if v > s.Max {
				s.Max = v
			}
		}
		if s.Count > 0 {
			s.Mean = total / time.Duration(s.Count)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func formatKey(name string, tags []Tag) string {
	key := name
	for _, t := range tags {
		key += ":" + t.Key + "=" + t.Value
	}
	return key
}

// Metric names recorded by slotwise.
const (
	MetricTurnTotal       = "slotwise.dialogue.turns"
	MetricTurnDuration    = "slotwise.dialogue.turn_duration"
	MetricTurnSlow        = "slotwise.dialogue.turns_slow"
	MetricTurnErrors      = "slotwise.dialogue.turn_errors"
	MetricBookings        = "slotwise.calendar.bookings"
	MetricSlotSearches    = "slotwise.scheduling.searches"
	MetricExtractions     = "slotwise.extraction.calls"
	MetricCaptureFailures = "slotwise.voice.capture_failures"
)
