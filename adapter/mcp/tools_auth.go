package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	"github.com/google/uuid"
)

type authExchangeInput struct {
	Code string `json:"code" jsonschema:"required"`
}

var errAuthNotConfigured = errors.New("auth service not configured")

func registerAuthTools(srv *mcp.Server, deps ToolDependencies) error {
	service := deps.AuthService

	srv.Tool("auth.url").
		Description("Generate OAuth2 authorization URL").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			if service == nil {
				return nil, errAuthNotConfigured
			}
			state := uuid.New().String()
			url := service.AuthURL(state)
			return map[string]any{
				"url":   url,
				"state": state,
			}, nil
		})

	srv.Tool("auth.exchange").
		Description("Exchange OAuth2 code for tokens and store them").
		Handler(func(ctx context.Context, input authExchangeInput) (map[string]any, error) {
			if service == nil {
				return nil, errAuthNotConfigured
			}
			if input.Code == "" {
				return nil, errors.New("code is required")
			}
			if _, err := service.ExchangeAndStore(ctx, input.Code); err != nil {
				return nil, err
			}
			return map[string]any{"stored": true}, nil
		})

	srv.Tool("auth.status").
		Description("Report whether a calendar token is stored").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			if service == nil {
				return nil, errAuthNotConfigured
			}
			status, err := service.Status(ctx)
			if errors.Is(err, identityOAuth.ErrTokenNotFound) {
				return map[string]any{"provider": service.Provider(), "connected": false}, nil
			}
			if err != nil {
				return nil, err
			}
			result := map[string]any{
				"provider":    status.Provider,
				"connected":   true,
				"refreshable": status.Refreshable,
			}
			if !status.Expiry.IsZero() {
				result["expiry"] = status.Expiry.Format(time.RFC3339)
			}
			return result, nil
		})

	return nil
}
