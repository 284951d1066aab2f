package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counter with tags", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Counter(MetricTurnErrors, 1, T("kind", "backend"))
		m.Counter(MetricTurnErrors, 1, T("kind", "backend"))
		m.Counter(MetricTurnErrors, 1, T("kind", "extraction"))

		assert.Equal(t, int64(2), m.GetCounter(MetricTurnErrors, T("kind", "backend")))
		assert.Equal(t, int64(1), m.GetCounter(MetricTurnErrors, T("kind", "extraction")))
		assert.Zero(t, m.GetCounter(MetricTurnErrors))
	})

	t.Run("timing summaries", func(t *testing.T) {
		m := NewInMemoryMetrics()

		m.Timing(MetricTurnDuration, 100*time.Millisecond)
		m.Timing(MetricTurnDuration, 300*time.Millisecond)
		m.Timing("a.first", time.Second)

		assert.Len(t, m.GetTimings(MetricTurnDuration), 2)

		summaries := m.Summaries()
		require.Len(t, summaries, 2)
		assert.Equal(t, "a.first", summaries[0].Key)
		assert.Equal(t, 2, summaries[1].Count)
		assert.Equal(t, 200*time.Millisecond, summaries[1].Mean)
		assert.Equal(t, 300*time.Millisecond, summaries[1].Max)
	})
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	m.Counter("x", 1)
	m.Timing("x", time.Second)
}
