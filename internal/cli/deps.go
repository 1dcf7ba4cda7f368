package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/relay/internal/core/config"
	"github.com/vietddude/relay/internal/infra/credential"
	redisclient "github.com/vietddude/relay/internal/infra/redis"
	"github.com/vietddude/relay/internal/infra/rpc/retry"
	"github.com/vietddude/relay/internal/infra/storage/postgres"
)

// closers collects cleanup functions run in reverse order.
type closers []func()

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// buildCredentials resolves the configured credential source, optionally
// fronted by the Redis token cache.
func buildCredentials(ctx context.Context, cfg *config.AppConfig) (credential.Store, closers, error) {
	var (
		store   credential.Store
		cleanup closers
	)

	switch cfg.Credentials.Source {
	case config.CredentialSourcePostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		cleanup = append(cleanup, func() { _ = db.Close() })
		registerCheck("postgres", db.Health)

		store = postgres.NewCredentialStore(postgres.NewCredentialRepo(db), cfg.Credentials.Subject,
			retry.WithLogger(slog.Default().With("component", "credentials")))
	default:
		store = credential.EnvStore{Key: cfg.Credentials.EnvKey}
	}

	if cfg.Redis.URL != "" {
		rdb, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			cleanup.Close()
			return nil, nil, err
		}
		cleanup = append(cleanup, func() { _ = rdb.Close() })
		registerCheck("redis", rdb.Health)

		store = redisclient.NewTokenCache(rdb, store, cfg.Credentials.Subject, cfg.Redis.TokenTTL)
	}

	return store, cleanup, nil
}
