package auth

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/slotwise/adapter/cli"
	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	"github.com/felixgeelhaar/slotwise/internal/identity/infrastructure/crypto"
	"github.com/felixgeelhaar/slotwise/internal/identity/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*identityOAuth.Service, *persistence.FileTokenRepository) {
	t.Helper()
	repo := persistence.NewFileTokenRepository(filepath.Join(t.TempDir(), "tokens.json"))
	svc, err := identityOAuth.NewService(identityOAuth.Config{
		Provider:     "google",
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8085/callback",
	}, repo, crypto.PlainEncrypter{}, nil)
	require.NoError(t, err)
	return svc, repo
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommands_NotConfigured(t *testing.T) {
	SetService(nil)
	cli.SetApp(nil)

	for _, args := range [][]string{{"url"}, {"exchange", "--code", "abc"}, {"status"}} {
		_, err := execute(t, args...)
		assert.ErrorIs(t, err, ErrNotConfigured, strings.Join(args, " "))
	}
}

func TestURL(t *testing.T) {
	svc, _ := newTestService(t)
	SetService(svc)
	t.Cleanup(func() { SetService(nil) })

	out, err := execute(t, "url")

	require.NoError(t, err)
	assert.Contains(t, out, "https://accounts.google.com/o/oauth2/auth?")
	assert.Contains(t, out, "access_type=offline")
	assert.Contains(t, out, "State: ")
}

func TestStatus(t *testing.T) {
	svc, repo := newTestService(t)
	SetService(svc)
	t.Cleanup(func() { SetService(nil) })

	out, err := execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "google: not connected")

	require.NoError(t, repo.Save(context.Background(), identityOAuth.StoredToken{
		Provider:     "google",
		AccessToken:  []byte("access"),
		RefreshToken: []byte("refresh"),
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "google: connected")
	assert.Contains(t, out, "access token: valid")
	assert.Contains(t, out, "refreshable:  true")
}

func TestPromptCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trimmed line", input: "  4/abc-def \n", want: "4/abc-def"},
		{name: "no newline", input: "code", want: "code"},
		{name: "empty", input: "\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompt bytes.Buffer
			code, err := promptCode(strings.NewReader(tt.input), &prompt)

			assert.Equal(t, "Authorization code: ", prompt.String())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}
