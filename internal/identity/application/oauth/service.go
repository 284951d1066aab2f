// Package oauth runs the authorization-code flow for the calendar account and
// keeps the resulting token fresh on disk.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/identity/infrastructure/crypto"
	"golang.org/x/oauth2"
)

// ErrTokenNotFound is returned when no token has been stored for the provider.
var ErrTokenNotFound = errors.New("oauth token not found")

// TokenRepository persists encrypted OAuth tokens, one per provider.
type TokenRepository interface {
	Save(ctx context.Context, token StoredToken) error
	// Find returns ErrTokenNotFound when nothing is stored for provider.
	Find(ctx context.Context, provider string) (*StoredToken, error)
}

// StoredToken is the encrypted representation of an OAuth token.
type StoredToken struct {
	Provider     string    `json:"provider"`
	AccessToken  []byte    `json:"access_token"`
	RefreshToken []byte    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Endpoints are the authorization servers of the OAuth calendar providers.
var Endpoints = map[string]oauth2.Endpoint{
	"google": {
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
	"microsoft": {
		AuthURL:  "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
		TokenURL: "https://login.microsoftonline.com/common/oauth2/v2.0/token",
	},
}

// DefaultScopes are requested when none are configured.
var DefaultScopes = map[string][]string{
	"google":    {"https://www.googleapis.com/auth/calendar"},
	"microsoft": {"offline_access", "Calendars.ReadWrite"},
}

// Config describes the OAuth client. Empty AuthURL, TokenURL and Scopes fall
// back to the provider defaults.
type Config struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// Service manages OAuth flows and token storage.
type Service struct {
	oauthConfig *oauth2.Config
	provider    string
	repo        TokenRepository
	encrypter   crypto.Encrypter
	logger      *slog.Logger
}

// NewService creates a new OAuth service.
func NewService(config Config, repo TokenRepository, encrypter crypto.Encrypter, logger *slog.Logger) (*Service, error) {
	if config.Provider == "" {
		return nil, errors.New("oauth provider is required")
	}
	endpoint := Endpoints[config.Provider]
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	if config.ClientID == "" || config.ClientSecret == "" || endpoint.AuthURL == "" || endpoint.TokenURL == "" || config.RedirectURL == "" {
		return nil, errors.New("oauth configuration is incomplete")
	}
	if repo == nil || encrypter == nil {
		return nil, errors.New("oauth dependencies are required")
	}
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes[config.Provider]
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		oauthConfig: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  config.RedirectURL,
			Scopes:       scopes,
		},
		provider:  config.Provider,
		repo:      repo,
		encrypter: encrypter,
		logger:    logger,
	}, nil
}

// Provider returns the provider name the service authorizes.
func (s *Service) Provider() string {
	return s.provider
}

// AuthURL returns the provider authorization URL.
func (s *Service) AuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// ExchangeAndStore exchanges a code for a token and stores it encrypted.
func (s *Service) ExchangeAndStore(ctx context.Context, code string) (*oauth2.Token, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("authorization code is required")
	}
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := s.store(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// TokenSource returns a source that refreshes the stored token when it expires
// and writes every refreshed token back to the repository.
func (s *Service) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := s.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	persisting := &persistingSource{
		base:    s.oauthConfig.TokenSource(ctx, token),
		service: s,
		ctx:     context.WithoutCancel(ctx),
		last:    token.AccessToken,
	}
	return oauth2.ReuseTokenSource(token, persisting), nil
}

// Status reports the stored token without refreshing it.
func (s *Service) Status(ctx context.Context) (TokenStatus, error) {
	token, err := s.loadToken(ctx)
	if err != nil {
		return TokenStatus{}, err
	}
	return TokenStatus{
		Provider:    s.provider,
		Expiry:      token.Expiry,
		Refreshable: token.RefreshToken != "",
	}, nil
}

// TokenStatus summarises a stored token.
type TokenStatus struct {
	Provider    string
	Expiry      time.Time
	Refreshable bool
}

func (s *Service) store(ctx context.Context, token *oauth2.Token) error {
	accessEnc, err := s.encrypter.Encrypt([]byte(token.AccessToken))
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var refreshEnc []byte
	if token.RefreshToken != "" {
		refreshEnc, err = s.encrypter.Encrypt([]byte(token.RefreshToken))
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	stored := StoredToken{
		Provider:     s.provider,
		AccessToken:  accessEnc,
		RefreshToken: refreshEnc,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		Scopes:       s.oauthConfig.Scopes,
	}
	if err := s.repo.Save(ctx, stored); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Service) loadToken(ctx context.Context) (*oauth2.Token, error) {
	stored, err := s.repo.Find(ctx, s.provider)
	if err != nil {
		return nil, err
	}

	access, err := s.encrypter.Decrypt(stored.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}

	refresh := ""
	if len(stored.RefreshToken) > 0 {
		refreshBytes, err := s.encrypter.Decrypt(stored.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token: %w", err)
		}
		refresh = string(refreshBytes)
	}

	return &oauth2.Token{
		AccessToken:  string(access),
		RefreshToken: refresh,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}, nil
}

// persistingSource saves tokens the underlying source refreshed.
type persistingSource struct {
	base    oauth2.TokenSource
	service *Service
	ctx     context.Context

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken == p.last {
		return token, nil
	}
	// Keep the stored refresh token if the refreshed one lacks it.
	if token.RefreshToken == "" {
		if previous, err := p.service.loadToken(p.ctx); err == nil {
			token.RefreshToken = previous.RefreshToken
		}
	}
	if err := p.service.store(p.ctx, token); err != nil {
		p.service.logger.Warn("persisting refreshed token failed", "provider", p.service.provider, "error", err)
	} else {
		p.service.logger.Debug("refreshed token persisted", "provider", p.service.provider)
	}
	p.last = token.AccessToken
	return token, nil
}
