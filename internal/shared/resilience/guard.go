// Package resilience wraps calls to external dependencies with circuit breakers
// and records per-dependency call statistics.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while a dependency's breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config configures the breakers created by a Guard.
type Config struct {
	// Enabled turns breakers on. When false calls are only timed.
	Enabled bool

	// MaxRequests is the number of probe calls allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is how long a breaker stays open.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips a breaker.
	FailureThreshold uint32
}

// DefaultConfig returns the defaults used for calendar and LLM backends.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
}

// Guard runs calls to named dependencies through one breaker per dependency.
type Guard struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
	stats    *Stats
	logger   *slog.Logger
	config   Config
}

// NewGuard creates a Guard.
func NewGuard(config Config, stats *Stats, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if stats == nil {
		stats = NewStats()
	}
	return &Guard{
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
		stats:    stats,
		logger:   logger,
		config:   config,
	}
}

// Stats returns the collector the guard records into.
func (g *Guard) Stats() *Stats {
	return g.stats
}

func (g *Guard) breaker(name string) *gobreaker.CircuitBreaker[any] {
	if !g.config.Enabled {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[name]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: g.config.MaxRequests,
		Interval:    g.config.Interval,
		Timeout:     g.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= g.config.FailureThreshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				"dependency", name,
				"from", from.String(),
				"to", to.String(),
			)
			g.stats.RecordState(name, to.String())
		},
	}

	b := gobreaker.NewCircuitBreaker[any](settings)
	g.breakers[name] = b
	return b
}

// Do runs fn for the named dependency. A call cancelled by the caller does not
// count against the dependency.
func (g *Guard) Do(ctx context.Context, name, operation string, fn func(ctx context.Context) (any, error)) (any, error) {
	start := time.Now()

	var result any
	var err error
	if b := g.breaker(name); b != nil {
		result, err = b.Execute(func() (any, error) {
			return fn(ctx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			g.stats.RecordRejected(name)
			return nil, ErrCircuitOpen
		}
	} else {
		result, err = fn(ctx)
	}

	g.stats.RecordCall(name, operation, time.Since(start), err)
	return result, err
}

// State returns the breaker state of a dependency, "disabled" when breakers are
// off, or "closed" when it has not been called yet.
func (g *Guard) State(name string) string {
	if !g.config.Enabled {
		return "disabled"
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.breakers[name]; ok {
		return b.State().String()
	}
	return gobreaker.StateClosed.String()
}

// Reset forgets the breaker of a dependency.
func (g *Guard) Reset(name string) {
	g.mu.Lock()
	delete(g.breakers, name)
	g.mu.Unlock()
	g.logger.Info("circuit breaker reset", "dependency", name)
}
