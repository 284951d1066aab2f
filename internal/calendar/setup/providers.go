package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/calendar/application"
	"github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	"github.com/felixgeelhaar/slotwise/internal/calendar/infrastructure/caldav"
	googleCal "github.com/felixgeelhaar/slotwise/internal/calendar/infrastructure/google"
	microsoftCal "github.com/felixgeelhaar/slotwise/internal/calendar/infrastructure/microsoft"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"golang.org/x/oauth2"
)

// OAuthTokenProvider provides the stored OAuth2 token for the calendar account.
type OAuthTokenProvider interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

// CalDAVCredentials holds the account used for CalDAV providers.
type CalDAVCredentials struct {
	URL      string
	Username string
	Password string
}

// ProviderConfig holds configuration for creating provider factories.
type ProviderConfig struct {
	GoogleOAuth    OAuthTokenProvider
	MicrosoftOAuth OAuthTokenProvider
	CalDAV         *CalDAVCredentials
	// CalendarID selects a calendar; "primary" or empty means the account default.
	CalendarID string
	Location   *time.Location
	// Guard wraps every backend in a circuit breaker when set.
	Guard  *resilience.Guard
	Logger *slog.Logger
}

// RegisterProviders registers all configured calendar providers with the registry.
func RegisterProviders(registry *application.ProviderRegistry, config ProviderConfig) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	wrap := func(provider domain.ProviderType, backend application.Backend) application.Backend {
		if config.Guard == nil {
			return backend
		}
		return application.NewBreakerBackend(backend, config.Guard, provider.String())
	}

	if config.GoogleOAuth != nil {
		registry.Register(domain.ProviderGoogle, func(ctx context.Context) (application.Backend, error) {
			backend := CreateGoogleBackend(config.GoogleOAuth, config.CalendarID, logger).WithLocation(config.Location)
			return wrap(domain.ProviderGoogle, backend), nil
		})
		logger.Debug("registered Google Calendar provider")
	}

	if config.MicrosoftOAuth != nil {
		registry.Register(domain.ProviderMicrosoft, func(ctx context.Context) (application.Backend, error) {
			backend := CreateMicrosoftBackend(config.MicrosoftOAuth, config.CalendarID, logger).WithLocation(config.Location)
			return wrap(domain.ProviderMicrosoft, backend), nil
		})
		logger.Debug("registered Microsoft Calendar provider")
	}

	if config.CalDAV != nil {
		creds := *config.CalDAV

		// Apple Calendar (iCloud)
		registry.Register(domain.ProviderApple, func(ctx context.Context) (application.Backend, error) {
			if creds.Username == "" {
				return nil, fmt.Errorf("%w: Apple credentials missing", domain.ErrNotAuthenticated)
			}
			baseURL := caldav.AppleCalDAVURL
			if creds.URL != "" {
				baseURL = creds.URL
			}
			backend := CreateCalDAVBackend(baseURL, creds.Username, creds.Password, calendarPath(config.CalendarID), logger).WithLocation(config.Location)
			return wrap(domain.ProviderApple, backend), nil
		})
		logger.Debug("registered Apple Calendar provider")

		// Generic CalDAV (Fastmail, Nextcloud, etc.)
		registry.Register(domain.ProviderCalDAV, func(ctx context.Context) (application.Backend, error) {
			if creds.URL == "" {
				return nil, fmt.Errorf("CalDAV URL not configured")
			}
			if creds.Username == "" {
				return nil, fmt.Errorf("%w: CalDAV credentials missing", domain.ErrNotAuthenticated)
			}
			backend := CreateCalDAVBackend(creds.URL, creds.Username, creds.Password, calendarPath(config.CalendarID), logger).WithLocation(config.Location)
			return wrap(domain.ProviderCalDAV, backend), nil
		})
		logger.Debug("registered CalDAV provider")
	}
}

func calendarPath(calendarID string) string {
	if calendarID == "primary" {
		return ""
	}
	return calendarID
}

// CreateGoogleBackend creates a Google Calendar backend for direct use.
func CreateGoogleBackend(tokens OAuthTokenProvider, calendarID string, logger *slog.Logger) *googleCal.Backend {
	backend := googleCal.NewBackend(tokens, logger)
	if calendarID != "" && calendarID != "primary" {
		backend.WithCalendarID(calendarID)
	}
	return backend
}

// CreateMicrosoftBackend creates a Microsoft Calendar backend for direct use.
func CreateMicrosoftBackend(tokens OAuthTokenProvider, calendarID string, logger *slog.Logger) *microsoftCal.Backend {
	backend := microsoftCal.NewBackend(tokens, logger)
	if calendarID != "" && calendarID != "primary" {
		backend.WithCalendarID(calendarID)
	}
	return backend
}

// CreateCalDAVBackend creates a CalDAV backend for direct use.
func CreateCalDAVBackend(baseURL, username, password, calendarPath string, logger *slog.Logger) *caldav.Backend {
	backend := caldav.NewBackend(baseURL, username, password, logger)
	if calendarPath != "" {
		backend.WithCalendarPath(calendarPath)
	}
	return backend
}
