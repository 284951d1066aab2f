package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	calendarApp "github.com/felixgeelhaar/slotwise/internal/calendar/application"
	calendarDomain "github.com/felixgeelhaar/slotwise/internal/calendar/domain"
	calendarCache "github.com/felixgeelhaar/slotwise/internal/calendar/infrastructure/cache"
	calendarSetup "github.com/felixgeelhaar/slotwise/internal/calendar/setup"
	dialogueApp "github.com/felixgeelhaar/slotwise/internal/dialogue/application"
	dialogueDomain "github.com/felixgeelhaar/slotwise/internal/dialogue/domain"
	dialogueInfra "github.com/felixgeelhaar/slotwise/internal/dialogue/infrastructure"
	"github.com/felixgeelhaar/slotwise/internal/extraction"
	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	identityCrypto "github.com/felixgeelhaar/slotwise/internal/identity/infrastructure/crypto"
	scheduleQueries "github.com/felixgeelhaar/slotwise/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/resilience"
	"github.com/felixgeelhaar/slotwise/internal/timeexpr"
	"github.com/felixgeelhaar/slotwise/internal/voice"
	"github.com/felixgeelhaar/slotwise/pkg/config"
	"github.com/felixgeelhaar/slotwise/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location

	// Infrastructure
	RedisClient *redis.Client
	SQLiteDB    *sql.DB
	Guard       *resilience.Guard
	Metrics     *observability.InMemoryMetrics
	Health      *observability.HealthRegistry

	// Identity
	TokenRepo   identityOAuth.TokenRepository
	OAuth       *identityOAuth.Registry
	AuthService *identityOAuth.Service

	// Calendar
	Provider         calendarDomain.ProviderType
	ProviderRegistry *calendarApp.ProviderRegistry
	EventCache       *calendarApp.EventCache
	Gateway          *calendarApp.Gateway

	// Scheduling
	Parser                     *timeexpr.Parser
	FindAvailableSlotsHandler  *scheduleQueries.FindAvailableSlotsHandler
	SuggestAlternativesHandler *scheduleQueries.SuggestAlternativesHandler
	ListEventsOnDateHandler    *scheduleQueries.ListEventsOnDateHandler

	// Dialogue
	Extractor      *extraction.Client
	Machine        *dialogueApp.Machine
	SessionStore   dialogueApp.SessionStore
	Sessions       *dialogueApp.SessionService
	LatencyMonitor *observability.LatencyMonitor
}

// NewContainer creates a new dependency injection container.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Location: cfg.Location(),
		Metrics:  observability.NewInMemoryMetrics(),
		Health:   observability.NewHealthRegistry(),
	}

	guardConfig := resilience.DefaultConfig()
	if cfg.BreakerFailureThreshold > 0 {
		guardConfig.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerTimeout > 0 {
		guardConfig.Timeout = cfg.BreakerTimeout
	}
	c.Guard = resilience.NewGuard(guardConfig, resilience.NewStats(), logger)

	// Connect to Redis (optional outside production)
	if cfg.RedisURL != "" {
		if err := c.connectRedis(ctx); err != nil {
			if cfg.IsProduction() {
				return nil, err
			}
			logger.Warn("Redis not available, caches and sessions stay in process", "error", err)
		}
	}

	if err := c.initIdentity(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initCalendar(ctx); err != nil {
		c.Close()
		return nil, err
	}
	c.initScheduling()
	c.initDialogue()
	c.registerHealthChecks()

	return c, nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) initIdentity(ctx context.Context) error {
	cfg := c.Config

	repo, db, err := NewRepositoryFactory(cfg).TokenRepository(ctx)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	c.TokenRepo = repo
	c.SQLiteDB = db

	encrypter, err := identityCrypto.FromKey(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid SLOTWISE_ENCRYPTION_KEY: %w", err)
	}
	if cfg.EncryptionKey == "" {
		c.Logger.Debug("token encryption key not set, tokens are stored unsealed")
	}

	c.OAuth = identityOAuth.NewRegistry()
	provider := calendarDomain.ProviderType(cfg.CalendarProvider)
	if !provider.RequiresOAuth() || cfg.OAuthClientID == "" {
		return nil
	}

	service, err := identityOAuth.NewService(identityOAuth.Config{
		Provider:     provider.String(),
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		AuthURL:      cfg.OAuthAuthURL,
		TokenURL:     cfg.OAuthTokenURL,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       cfg.Scopes(),
	}, repo, encrypter, c.Logger)
	if err != nil {
		c.Logger.Warn("failed to initialize auth service", "provider", provider, "error", err)
		return nil
	}
	c.OAuth.Register(service)
	c.AuthService = service
	return nil
}

func (c *Container) initCalendar(ctx context.Context) error {
	cfg := c.Config
	c.Provider = calendarDomain.ProviderType(cfg.CalendarProvider)
	if !c.Provider.IsValid() {
		return fmt.Errorf("unsupported calendar provider: %s", cfg.CalendarProvider)
	}

	c.ProviderRegistry = calendarApp.NewProviderRegistry()
	providerConfig := calendarSetup.ProviderConfig{
		CalendarID: cfg.CalendarID,
		Location:   c.Location,
		Guard:      c.Guard,
		Logger:     c.Logger,
	}
	if c.AuthService != nil {
		switch c.Provider {
		case calendarDomain.ProviderGoogle:
			providerConfig.GoogleOAuth = c.AuthService
		case calendarDomain.ProviderMicrosoft:
			providerConfig.MicrosoftOAuth = c.AuthService
		}
	}
	if cfg.CalDAVUsername != "" || cfg.CalDAVURL != "" {
		providerConfig.CalDAV = &calendarSetup.CalDAVCredentials{
			URL:      cfg.CalDAVURL,
			Username: cfg.CalDAVUsername,
			Password: cfg.CalDAVPassword,
		}
	}
	calendarSetup.RegisterProviders(c.ProviderRegistry, providerConfig)

	backend, err := c.ProviderRegistry.Create(ctx, c.Provider)
	if err != nil {
		// Commands that never touch the calendar (parse, auth) must still work.
		c.Logger.Warn("calendar backend not available", "provider", c.Provider, "error", err)
		backend = unconfiguredBackend{provider: c.Provider, reason: err}
	}

	var opts []calendarApp.EventCacheOption
	if c.RedisClient != nil {
		opts = append(opts, calendarApp.WithSnapshotStore(calendarCache.NewRedisSnapshotStore(c.RedisClient, cfg.CalendarID)))
	}
	c.EventCache = calendarApp.NewEventCache(cfg.EventCacheTTL, c.Logger, opts...)
	c.Gateway = calendarApp.NewGateway(backend, c.EventCache, calendarApp.GatewayConfig{
		Location:    c.Location,
		HorizonDays: cfg.HorizonDays,
	}, c.Logger)
	return nil
}

func (c *Container) initScheduling() {
	cfg := c.Config
	c.Parser = timeexpr.NewParser(c.Location)
	c.FindAvailableSlotsHandler = scheduleQueries.NewFindAvailableSlotsHandler(c.Gateway, scheduleQueries.EngineConfig{
		WorkingHours: schedulingDomain.WorkingHours{StartHour: cfg.WorkStartHour, EndHour: cfg.WorkEndHour},
		SlotInterval: cfg.SlotInterval,
		HorizonDays:  cfg.HorizonDays,
		Location:     c.Location,
		ExcludePast:  cfg.ExcludePastSlots,
	})
	c.SuggestAlternativesHandler = scheduleQueries.NewSuggestAlternativesHandler(c.FindAvailableSlotsHandler)
	c.ListEventsOnDateHandler = scheduleQueries.NewListEventsOnDateHandler(c.Gateway)
}

func (c *Container) initDialogue() {
	cfg := c.Config
	c.Extractor = extraction.NewClient(extraction.Config{
		Enabled:     cfg.LLMEnabled,
		URL:         cfg.LLMURL,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}, c.Guard, c.Logger).WithMetrics(c.Metrics)

	c.Machine = dialogueApp.NewMachine(dialogueApp.Dependencies{
		Parser:       c.Parser,
		Slots:        c.FindAvailableSlotsHandler,
		Alternatives: c.SuggestAlternativesHandler,
		Events:       c.ListEventsOnDateHandler,
		Upcoming:     c.Gateway,
		Booker:       c.Gateway,
		Extractor:    c.Extractor,
	}, dialogueApp.MachineConfig{
		MeetingSummary:     cfg.MeetingSummary,
		HorizonDays:        cfg.HorizonDays,
		MaxDurationMinutes: (cfg.WorkEndHour - cfg.WorkStartHour) * 60,
	}, c.Logger)

	if c.RedisClient != nil {
		c.SessionStore = dialogueInfra.NewRedisSessionStore(c.RedisClient, cfg.SessionTTL)
	} else {
		c.SessionStore = dialogueInfra.NewMemorySessionStore(cfg.SessionTTL)
	}
	c.Sessions = dialogueApp.NewSessionService(c.Machine, c.SessionStore, cfg.DialogueDurationMinutes, c.Logger)
	c.LatencyMonitor = observability.NewLatencyMonitor(cfg.LatencyBudget, c.Logger, c.Metrics)
}

// NewAssistant builds a spoken-dialogue loop reading utterances from in and
// replying on out, and through TTS_COMMAND when set.
func (c *Container) NewAssistant(in io.Reader, out io.Writer) *dialogueApp.Assistant {
	var speaker voice.Speaker = voice.NewConsoleSpeaker(out, c.Logger)
	if c.Config.TTSCommand != "" {
		speaker = voice.NewCommandSpeaker(c.Config.TTSCommand, speaker, c.Logger)
	}
	return dialogueApp.NewAssistant(
		c.Machine,
		dialogueDomain.NewConversationState(c.Config.DialogueDurationMinutes),
		voice.NewConsoleCapturer(in, out),
		speaker,
		c.LatencyMonitor,
		c.Metrics,
		dialogueApp.AssistantConfig{ListenTimeout: c.Config.ListenTimeout},
		c.Logger,
	)
}

func (c *Container) registerHealthChecks() {
	provider := c.Provider.String()
	c.Health.Register("calendar", func(ctx context.Context) observability.HealthCheckResult {
		state := c.Guard.State(provider)
		status := observability.HealthStatusHealthy
		if state == "open" {
			status = observability.HealthStatusUnhealthy
		}
		return observability.HealthCheckResult{
			Status:  status,
			Message: provider + " circuit breaker " + state,
		}
	})
	if c.AuthService != nil {
		c.Health.Register("oauth_token", observability.PingChecker("oauth token", func(ctx context.Context) error {
			_, err := c.AuthService.Status(ctx)
			return err
		}))
	}
	if c.SQLiteDB != nil {
		c.Health.Register("sqlite", observability.PingChecker("sqlite", c.SQLiteDB.PingContext))
	}
	if c.RedisClient != nil {
		c.Health.Register("redis", observability.OptionalPingChecker("redis", func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if c.Config.LLMEnabled {
		c.Health.Register("llm", observability.OptionalPingChecker("language model", c.Extractor.Ping))
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Debug("Redis connection closed")
		}
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		} else {
			c.Logger.Debug("SQLite connection closed")
		}
	}
}

// unconfiguredBackend stands in for a provider whose backend could not be
// built, reporting why on every call.
type unconfiguredBackend struct {
	provider calendarDomain.ProviderType
	reason   error
}

func (b unconfiguredBackend) err() error {
	if errors.Is(b.reason, calendarDomain.ErrNotAuthenticated) {
		return b.reason
	}
	return fmt.Errorf("%w: %s: %v", calendarDomain.ErrNotAuthenticated, b.provider, b.reason)
}

func (b unconfiguredBackend) ListEvents(context.Context, time.Time, time.Time) ([]calendarDomain.Event, error) {
	return nil, b.err()
}

func (b unconfiguredBackend) CreateEvent(context.Context, calendarDomain.NewEvent) (calendarDomain.EventReference, error) {
	return calendarDomain.EventReference{}, b.err()
}
