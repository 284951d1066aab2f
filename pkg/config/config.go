package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv        string
	LogLevel      string
	EncryptionKey string

	// Calendar
	CalendarProvider string
	CalendarID       string
	CalendarTimezone string
	CalDAVURL        string
	CalDAVUsername   string
	CalDAVPassword   string

	// Scheduling
	WorkStartHour           int
	WorkEndHour             int
	SlotInterval            time.Duration
	HorizonDays             int
	DefaultDurationMinutes  int
	DialogueDurationMinutes int
	EventCacheTTL           time.Duration
	MeetingSummary          string
	ExcludePastSlots        bool

	// Redis
	RedisURL   string
	SessionTTL time.Duration

	// OAuth
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthRedirectURL  string
	OAuthScopes       string

	// Token storage
	TokenStore string
	TokenPath  string
	SQLitePath string

	// Language model
	LLMEnabled     bool
	LLMURL         string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Voice
	ListenTimeout time.Duration
	TTSCommand    string
	LatencyBudget time.Duration

	// Circuit breakers
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dataDir := getDefaultDataDir()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EncryptionKey: getEnv("SLOTWISE_ENCRYPTION_KEY", ""),

		CalendarProvider: strings.ToLower(getEnv("CALENDAR_PROVIDER", "google")),
		CalendarID:       getEnv("CALENDAR_ID", "primary"),
		CalendarTimezone: getEnv("CALENDAR_TIMEZONE", "Asia/Kolkata"),
		CalDAVURL:        getEnv("CALDAV_URL", ""),
		CalDAVUsername:   getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:   getEnv("CALDAV_PASSWORD", ""),

		WorkStartHour:           getIntEnv("WORK_START_HOUR", 9),
		WorkEndHour:             getIntEnv("WORK_END_HOUR", 18),
		SlotInterval:            getDurationEnv("SLOT_INTERVAL", 15*time.Minute),
		HorizonDays:             getIntEnv("HORIZON_DAYS", 7),
		DefaultDurationMinutes:  getIntEnv("DEFAULT_DURATION_MINUTES", 30),
		DialogueDurationMinutes: getIntEnv("DIALOGUE_DURATION_MINUTES", 60),
		EventCacheTTL:           getDurationEnv("EVENT_CACHE_TTL", 30*time.Second),
		MeetingSummary:          getEnv("MEETING_SUMMARY", "Scheduled Meeting"),
		ExcludePastSlots:        getBoolEnv("EXCLUDE_PAST_SLOTS", true),

		RedisURL:   getEnv("REDIS_URL", ""),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthAuthURL:      getEnv("OAUTH_AUTH_URL", ""),
		OAuthTokenURL:     getEnv("OAUTH_TOKEN_URL", ""),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", ""),
		OAuthScopes:       getEnv("OAUTH_SCOPES", ""),

		TokenStore: strings.ToLower(getEnv("TOKEN_STORE", "file")),
		TokenPath:  getEnv("TOKEN_PATH", filepath.Join(dataDir, "token.json")),
		SQLitePath: getEnv("SQLITE_PATH", filepath.Join(dataDir, "slotwise.db")),

		LLMEnabled:     getBoolEnv("LLM_ENABLED", true),
		LLMURL:         getEnv("LLM_URL", "http://localhost:11434/api/generate"),
		LLMModel:       getEnv("LLM_MODEL", "llama3"),
		LLMTemperature: getFloatEnv("LLM_TEMPERATURE", 0.1),
		LLMTimeout:     getDurationEnv("LLM_TIMEOUT", 3*time.Second),

		ListenTimeout: getDurationEnv("LISTEN_TIMEOUT", 10*time.Second),
		TTSCommand:    getEnv("TTS_COMMAND", ""),
		LatencyBudget: getDurationEnv("LATENCY_BUDGET", 800*time.Millisecond),

		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the scheduler cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.CalendarTimezone); err != nil {
		errs = append(errs, fmt.Errorf("CALENDAR_TIMEZONE %q: %w", c.CalendarTimezone, err))
	}
	if c.WorkStartHour < 0 || c.WorkEndHour > 24 || c.WorkEndHour <= c.WorkStartHour {
		errs = append(errs, fmt.Errorf("working hours %d-%d are invalid", c.WorkStartHour, c.WorkEndHour))
	}
	if c.SlotInterval <= 0 {
		errs = append(errs, errors.New("SLOT_INTERVAL must be positive"))
	}
	if c.HorizonDays <= 0 {
		errs = append(errs, errors.New("HORIZON_DAYS must be positive"))
	}
	if c.DefaultDurationMinutes <= 0 || c.DialogueDurationMinutes <= 0 {
		errs = append(errs, errors.New("meeting durations must be positive"))
	}
	switch c.TokenStore {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE %q must be file or sqlite", c.TokenStore))
	}
	return errors.Join(errs...)
}

// Location returns the calendar timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.CalendarTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Scopes splits OAUTH_SCOPES on commas and whitespace.
func (c *Config) Scopes() []string {
	return strings.FieldsFunc(c.OAuthScopes, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".slotwise"
	}
	return filepath.Join(home, ".slotwise")
}
