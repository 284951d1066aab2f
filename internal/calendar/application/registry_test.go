package application_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/slotwise/internal/calendar/application"
	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderRegistry_CreateRegistered(t *testing.T) {
	registry := application.NewProviderRegistry()
	backend := &fakeBackend{}
	registry.Register(domain.ProviderGoogle, func(context.Context) (application.Backend, error) {
		return backend, nil
	})

	got, err := registry.Create(context.Background(), domain.ProviderGoogle)

	require.NoError(t, err)
	assert.Same(t, backend, got)
	assert.True(t, registry.HasProvider(domain.ProviderGoogle))
}

func TestProviderRegistry_CreateNotRegistered(t *testing.T) {
	registry := application.NewProviderRegistry()

	_, err := registry.Create(context.Background(), domain.ProviderCalDAV)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend registered")
	assert.False(t, registry.HasProvider(domain.ProviderCalDAV))
}

func TestProviderRegistry_SupportedProvidersSorted(t *testing.T) {
	registry := application.NewProviderRegistry()
	factory := func(context.Context) (application.Backend, error) { return &fakeBackend{}, nil }
	registry.Register(domain.ProviderMicrosoft, factory)
	registry.Register(domain.ProviderCalDAV, factory)
	registry.Register(domain.ProviderGoogle, factory)

	assert.Equal(t, []domain.ProviderType{
		domain.ProviderCalDAV,
		domain.ProviderGoogle,
		domain.ProviderMicrosoft,
	}, registry.SupportedProviders())
}
