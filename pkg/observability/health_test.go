package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("calendar", PingChecker("calendar", func(ctx context.Context) error { return nil }))
	registry.Register("redis", OptionalPingChecker("redis", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	results := registry.Check(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "calendar", results[0].Name)
	assert.Equal(t, HealthStatusHealthy, results[0].Status)
	assert.Equal(t, "redis", results[1].Name)
	assert.Equal(t, HealthStatusDegraded, results[1].Status)
	assert.Contains(t, results[1].Message, "connection refused")
	assert.Equal(t, HealthStatusDegraded, OverallStatus(results))
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, OverallStatus(nil))
	assert.Equal(t, HealthStatusUnhealthy, OverallStatus([]HealthCheckResult{
		{Status: HealthStatusDegraded},
		{Status: HealthStatusUnhealthy},
	}))
}
