package app

import (
	"context"
	"database/sql"
	"fmt"

	identityOAuth "github.com/felixgeelhaar/slotwise/internal/identity/application/oauth"
	identityPersistence "github.com/felixgeelhaar/slotwise/internal/identity/infrastructure/persistence"
	"github.com/felixgeelhaar/slotwise/pkg/config"
)

// Token store kinds accepted in TOKEN_STORE.
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

// RepositoryFactory creates the token repository for the configured store.
type RepositoryFactory struct {
	store      string
	tokenPath  string
	sqlitePath string
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(cfg *config.Config) *RepositoryFactory {
	return &RepositoryFactory{
		store:      cfg.TokenStore,
		tokenPath:  cfg.TokenPath,
		sqlitePath: cfg.SQLitePath,
	}
}

// TokenRepository opens the repository. The returned database is nil for the
// file store and must be closed by the caller otherwise.
func (f *RepositoryFactory) TokenRepository(ctx context.Context) (identityOAuth.TokenRepository, *sql.DB, error) {
	switch f.store {
	case TokenStoreFile, "":
		return identityPersistence.NewFileTokenRepository(f.tokenPath), nil, nil

	case TokenStoreSQLite:
		db, err := identityPersistence.OpenSQLite(ctx, f.sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return identityPersistence.NewSQLiteTokenRepository(db), db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported token store: %s", f.store)
	}
}
