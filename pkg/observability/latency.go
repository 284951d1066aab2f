package observability

import (
	"context"
	"log/slog"
	"time"
)

// DefaultLatencyBudget is the per-turn target for a spoken reply.
const DefaultLatencyBudget = 800 * time.Millisecond

// LatencyMonitor measures dialogue turns and warns when one exceeds the budget.
type LatencyMonitor struct {
	budget  time.Duration
	logger  *slog.Logger
	metrics Metrics
	now     func() time.Time
}

// NewLatencyMonitor creates a monitor. A non-positive budget uses DefaultLatencyBudget.
func NewLatencyMonitor(budget time.Duration, logger *slog.Logger, metrics Metrics) *LatencyMonitor {
	if budget <= 0 {
		budget = DefaultLatencyBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &LatencyMonitor{budget: budget, logger: logger, metrics: metrics, now: time.Now}
}

// WithClock overrides the monitor clock.
func (m *LatencyMonitor) WithClock(now func() time.Time) *LatencyMonitor {
	m.now = now
	return m
}

// Budget returns the configured budget.
func (m *LatencyMonitor) Budget() time.Duration {
	return m.budget
}

// TurnTimer measures one turn split into processing and speech.
type TurnTimer struct {
	monitor    *LatencyMonitor
	start      time.Time
	processing time.Duration
}

// Start begins timing a turn.
func (m *LatencyMonitor) Start() *TurnTimer {
	return &TurnTimer{monitor: m, start: m.now()}
}

// MarkProcessed records the end of processing; the remainder of the turn is speech.
func (t *TurnTimer) MarkProcessed() time.Duration {
	t.processing = t.monitor.now().Sub(t.start)
	return t.processing
}

// Stop ends the turn and returns its total latency. Turns over budget are
// logged at warn level and counted.
func (t *TurnTimer) Stop(ctx context.Context) time.Duration {
	m := t.monitor
	total := m.now().Sub(t.start)
	if t.processing == 0 {
		t.processing = total
	}

	m.metrics.Counter(MetricTurnTotal, 1)
	m.metrics.Timing(MetricTurnDuration, total)

	if total > m.budget {
		m.metrics.Counter(MetricTurnSlow, 1)
		m.logger.WarnContext(ctx, "response latency exceeds budget",
			DurationKey, total.Milliseconds(),
			"processing_ms", t.processing.Milliseconds(),
			"speech_ms", (total - t.processing).Milliseconds(),
			"budget_ms", m.budget.Milliseconds(),
		)
	} else {
		m.logger.DebugContext(ctx, "turn completed", DurationKey, total.Milliseconds())
	}
	return total
}
