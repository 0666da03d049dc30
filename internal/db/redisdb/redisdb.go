// Package redisdb wraps the optional Redis cache layer: token
// verification results and compiled saved-search SQL, both safe to miss
// and recompute from Postgres.
package redisdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/config"
	"github.com/turahe/mediacore/pkg/logger"
)

var (
	client redis.Cmdable
	m      sync.Mutex
)

// Connect opens the Redis client described by cfg. A zero-value cfg (no
// Host) is a deliberate no-op: Client() will return nil and every cache
// helper treats that as a permanent miss.
func Connect(cfg config.Redis) error {
	m.Lock()
	defer m.Unlock()

	if !cfg.Enabled() {
		return nil
	}

	c := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redisdb: connect: %w", err)
	}

	client = c
	return nil
}

// Client returns the connected client, or nil if the cache layer is
// disabled. Callers must treat a nil client as an always-miss cache.
func Client() redis.Cmdable {
	return client
}

const (
	tokenPrefix  = "mediacore:token:"
	searchPrefix = "mediacore:search_sql:"
)

// CacheTokenVerification stores a positive verify_token result so repeat
// requests from the same bearer token can skip re-verifying the token
// against Postgres.
func CacheTokenVerification(ctx context.Context, token string, userID string, ttl time.Duration) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, tokenPrefix+token, userID, ttl).Err(); err != nil && logger.Log != nil {
		logger.Log.Warn("redisdb: cache token verification failed", zap.Error(err))
	}
}

// LookupTokenVerification returns the cached user ID for token, or ("", false)
// on a miss (including when the cache layer is disabled).
func LookupTokenVerification(ctx context.Context, token string) (string, bool) {
	if client == nil {
		return "", false
	}
	userID, err := client.Get(ctx, tokenPrefix+token).Result()
	if err != nil {
		return "", false
	}
	return userID, true
}

// InvalidateToken removes a cached verification for token. Nothing in
// this module calls it: revoking or extending a token leaves any cached
// entry in place until its TTL runs out.
func InvalidateToken(ctx context.Context, token string) {
	if client == nil {
		return
	}
	client.Del(ctx, tokenPrefix+token)
}

// CacheCompiledSearch stores the compiled SQL WHERE clause for a saved
// search so repeated evaluations of the same query skip AST compilation.
func CacheCompiledSearch(ctx context.Context, searchID string, sql string, ttl time.Duration) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, searchPrefix+searchID, sql, ttl).Err(); err != nil && logger.Log != nil {
		logger.Log.Warn("redisdb: cache compiled search failed", zap.Error(err))
	}
}

// LookupCompiledSearch returns the cached SQL for searchID, or ("", false) on a miss.
func LookupCompiledSearch(ctx context.Context, searchID string) (string, bool) {
	if client == nil {
		return "", false
	}
	sql, err := client.Get(ctx, searchPrefix+searchID).Result()
	if err != nil {
		return "", false
	}
	return sql, true
}

// InvalidateCompiledSearch drops the cached SQL for searchID. Nothing in
// this module calls it; saving a changed search does not invalidate it.
func InvalidateCompiledSearch(ctx context.Context, searchID string) {
	if client == nil {
		return
	}
	client.Del(ctx, searchPrefix+searchID)
}
