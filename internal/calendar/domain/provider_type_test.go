package domain_test

import (
	"testing"

	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/stretchr/testify/assert"
)

func TestProviderType_IsValid(t *testing.T) {
	tests := []struct {
		provider domain.ProviderType
		valid    bool
	}{
		{domain.ProviderGoogle, true},
		{domain.ProviderMicrosoft, true},
		{domain.ProviderApple, true},
		{domain.ProviderCalDAV, true},
		{domain.ProviderType("outlook"), false},
		{domain.ProviderType(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.provider.IsValid())
		})
	}
}

func TestProviderType_RequiresOAuth(t *testing.T) {
	assert.True(t, domain.ProviderGoogle.RequiresOAuth())
	assert.True(t, domain.ProviderMicrosoft.RequiresOAuth())
	assert.False(t, domain.ProviderApple.RequiresOAuth())
	assert.False(t, domain.ProviderCalDAV.RequiresOAuth())
}

func TestProviderType_DisplayName(t *testing.T) {
	assert.Equal(t, "Google Calendar", domain.ProviderGoogle.DisplayName())
	assert.Equal(t, "CalDAV", domain.ProviderCalDAV.DisplayName())
	assert.Equal(t, "custom", domain.ProviderType("custom").DisplayName())
}
