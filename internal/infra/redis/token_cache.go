package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/relay/internal/infra/credential"
	"github.com/vietddude/relay/internal/infra/metrics"
)

// DefaultTokenTTL is used when the config leaves token_ttl unset.
const DefaultTokenTTL = 10 * time.Minute

// kv is the subset of the Redis API the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// TokenCache implements credential.Store by caching another store's token.
// Cache failures are logged and fall through to the backing store.
type TokenCache struct {
	rdb     kv
	next    credential.Store
	subject string
	ttl     time.Duration
	logger  *slog.Logger
}

// NewTokenCache creates a cache for subject's token in front of next.
func NewTokenCache(client *Client, next credential.Store, subject string, ttl time.Duration) *TokenCache {
	return newTokenCache(client.rdb, next, subject, ttl)
}

func newTokenCache(rdb kv, next credential.Store, subject string, ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCache{
		rdb:     rdb,
		next:    next,
		subject: subject,
		ttl:     ttl,
		logger:  slog.Default(),
	}
}

func tokenKey(subject string) string {
	return fmt.Sprintf("credential:token:%s", subject)
}

// Token returns the cached token or loads and caches it from the backing store.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	key := tokenKey(c.subject)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && val != "":
		metrics.CredentialCacheTotal.WithLabelValues("hit").Inc()
		return val, nil
	case err != nil && !errors.Is(err, redis.Nil):
		metrics.CredentialCacheTotal.WithLabelValues("error").Inc()
		c.logger.Warn("Token cache read failed", "subject", c.subject, "error", err)
	default:
		metrics.CredentialCacheTotal.WithLabelValues("miss").Inc()
	}

	token, err := c.next.Token(ctx)
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, token, c.ttl).Err(); err != nil {
		c.logger.Warn("Token cache write failed", "subject", c.subject, "error", err)
	}
	return token, nil
}

// Invalidate drops the cached token, e.g. after the backend rejects it.
func (c *TokenCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, tokenKey(c.subject)).Err()
}
