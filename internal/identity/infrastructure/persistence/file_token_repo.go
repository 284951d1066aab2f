// Package persistence stores the calendar account's OAuth token.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
)

// FileTokenRepository keeps tokens in a single JSON file keyed by provider.
type FileTokenRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenRepository creates a repository backed by path.
func NewFileTokenRepository(path string) *FileTokenRepository {
	return &FileTokenRepository{path: path}
}

// Path returns the token file location.
func (r *FileTokenRepository) Path() string {
	return r.path
}

// Save writes token, replacing any token stored for the same provider.
func (r *FileTokenRepository) Save(_ context.Context, token oauth.StoredToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.readAll()
	if err != nil {
		return err
	}
	tokens[token.Provider] = token

	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	// Write then rename so a crash never leaves a truncated file.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Find returns the token stored for provider.
func (r *FileTokenRepository) Find(_ context.Context, provider string) (*oauth.StoredToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens, err := r.readAll()
	if err != nil {
		return nil, err
	}
	token, ok := tokens[provider]
	if !ok {
		return nil, oauth.ErrTokenNotFound
	}
	return &token, nil
}

func (r *FileTokenRepository) readAll() (map[string]oauth.StoredToken, error) {
	tokens := make(map[string]oauth.StoredToken)
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	if len(data) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("decode token file %s: %w", r.path, err)
	}
	return tokens, nil
}

var _ oauth.TokenRepository = (*FileTokenRepository)(nil)
