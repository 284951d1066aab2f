package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/application"
	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerBackend_PassesThrough(t *testing.T) {
	inner := &fakeBackend{events: []domain.Event{{ID: "1"}}}
	backend := application.NewBreakerBackend(inner, resilience.NewGuard(resilience.DefaultConfig(), nil, nil), "google")

	events, err := backend.ListEvents(context.Background(), at(10, 0, 0), at(17, 0, 0))
	require.NoError(t, err)
	assert.Len(t, events, 1)

	ref, err := backend.CreateEvent(context.Background(), domain.NewEvent{Summary: "x", Start: at(11, 9, 0), End: at(11, 10, 0)})
	require.NoError(t, err)
	assert.Equal(t, "new", ref.ID)
}

func TestBreakerBackend_FailsFastWhenOpen(t *testing.T) {
	boom := errors.New("connection refused")
	inner := &fakeBackend{listErr: boom}
	guard := resilience.NewGuard(resilience.Config{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Hour,
		FailureThreshold: 2,
	}, nil, nil)
	backend := application.NewBreakerBackend(inner, guard, "google")

	for i := 0; i < 2; i++ {
		_, err := backend.ListEvents(context.Background(), at(10, 0, 0), at(17, 0, 0))
		assert.ErrorIs(t, err, boom)
	}

	_, err := backend.ListEvents(context.Background(), at(10, 0, 0), at(17, 0, 0))
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Equal(t, 2, inner.listCount())
}
