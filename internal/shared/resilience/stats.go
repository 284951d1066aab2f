package resilience

import (
	"sort"
	"sync"
	"time"
)

// DependencyStats summarises calls made to one external dependency.
type DependencyStats struct {
	Name            string        `json:"name"`
	TotalCalls      int64         `json:"total_calls"`
	FailedCalls     int64         `json:"failed_calls"`
	RejectedCalls   int64         `json:"rejected_calls"`
	AverageDuration time.Duration `json:"average_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	LastCallAt      time.Time     `json:"last_call_at"`
	LastError       string        `json:"last_error,omitempty"`
	BreakerState    string        `json:"breaker_state"`
	// Operations counts calls per operation name.
	Operations map[string]int64 `json:"operations"`

	totalDuration time.Duration
}

// Stats collects DependencyStats. It is safe for concurrent use.
type Stats struct {
	mu    sync.RWMutex
	deps  map[string]*DependencyStats
	clock func() time.Time
}

// NewStats creates an empty collector.
func NewStats() *Stats {
	return &Stats{
		deps:  make(map[string]*DependencyStats),
		clock: time.Now,
	}
}

func (s *Stats) entry(name string) *DependencyStats {
	d, ok := s.deps[name]
	if !ok {
		d = &DependencyStats{
			Name:         name,
			BreakerState: "closed",
			Operations:   make(map[string]int64),
		}
		s.deps[name] = d
	}
	return d
}

// RecordCall records one completed call.
func (s *Stats) RecordCall(name, operation string, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.entry(name)
	d.TotalCalls++
	d.Operations[operation]++
	d.totalDuration += duration
	d.AverageDuration = d.totalDuration / time.Duration(d.TotalCalls)
	if duration > d.MaxDuration {
		d.MaxDuration = duration
	}
	d.LastCallAt = s.clock()
	if err != nil {
		d.FailedCalls++
		d.LastError = err.Error()
	}
}

// RecordRejected records a call refused by an open breaker.
func (s *Stats) RecordRejected(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(name).RejectedCalls++
}

// RecordState records a breaker state change.
func (s *Stats) RecordState(name, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(name).BreakerState = state
}

// Get returns a copy of the stats for name.
func (s *Stats) Get(name string) (DependencyStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deps[name]
	if !ok {
		return DependencyStats{}, false
	}
	return copyStats(d), true
}

// All returns copies of every dependency's stats, sorted by name.
func (s *Stats) All() []DependencyStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DependencyStats, 0, len(s.deps))
	for _, d := range s.deps {
		out = append(out, copyStats(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func copyStats(d *DependencyStats) DependencyStats {
	c := *d
	c.Operations = make(map[string]int64, len(d.Operations))
	for k, v := range d.Operations {
		c.Operations[k] = v
	}
	return c
}
