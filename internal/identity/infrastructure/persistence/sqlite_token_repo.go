package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
)

// SQLiteTokenRepository stores OAuth tokens in SQLite, one row per provider.
type SQLiteTokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteTokenRepository creates a new SQLiteTokenRepository. The schema
// must already be applied, see OpenSQLite.
func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db, now: time.Now}
}

// Save upserts the token for its provider.
func (r *SQLiteTokenRepository) Save(ctx context.Context, token oauth.StoredToken) error {
	query := `
		INSERT INTO oauth_tokens (
			provider, access_token, refresh_token, token_type, expiry, scopes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			scopes = excluded.scopes,
			updated_at = excluded.updated_at
	`
	now := r.now().UTC().Format(time.RFC3339)
	expiry := ""
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.UTC().Format(time.RFC3339Nano)
	}
	_, err := r.db.ExecContext(ctx, query,
		token.Provider,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		expiry,
		strings.Join(token.Scopes, " "),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("save token %s: %w", token.Provider, err)
	}
	return nil
}

// Find fetches the token stored for provider.
func (r *SQLiteTokenRepository) Find(ctx context.Context, provider string) (*oauth.StoredToken, error) {
	query := `
		SELECT provider, access_token, refresh_token, token_type, expiry, scopes
		FROM oauth_tokens
		WHERE provider = ?
	`

	var (
		token  oauth.StoredToken
		expiry string
		scopes string
	)
	err := r.db.QueryRowContext(ctx, query, provider).Scan(
		&token.Provider,
		&token.AccessToken,
		&token.RefreshToken,
		&token.TokenType,
		&expiry,
		&scopes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oauth.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token %s: %w", provider, err)
	}

	if expiry != "" {
		token.Expiry, err = time.Parse(time.RFC3339Nano, expiry)
		if err != nil {
			return nil, fmt.Errorf("parse token expiry: %w", err)
		}
	}
	token.Scopes = strings.Fields(scopes)
	return &token, nil
}

var _ oauth.TokenRepository = (*SQLiteTokenRepository)(nil)
