package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
)

// BackendFactory creates a Backend for a provider.
type BackendFactory func(ctx context.Context) (Backend, error)

// ProviderRegistry maps provider types to backend factories.
type ProviderRegistry struct {
	mu        sync.RWMutex
	factories map[domain.ProviderType]BackendFactory
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		factories: make(map[domain.ProviderType]BackendFactory),
	}
}

// Register registers a backend factory for a provider type.
func (r *ProviderRegistry) Register(provider domain.ProviderType, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Create builds the backend for provider.
func (r *ProviderRegistry) Create(ctx context.Context, provider domain.ProviderType) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no backend registered for provider: %s", provider)
	}
	return factory(ctx)
}

// HasProvider returns true if a provider is registered.
func (r *ProviderRegistry) HasProvider(provider domain.ProviderType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[provider]
	return ok
}

// SupportedProviders returns all registered provider types in name order.
func (r *ProviderRegistry) SupportedProviders() []domain.ProviderType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.ProviderType, 0, len(r.factories))
	for p := range r.factories {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
