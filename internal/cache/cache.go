// Package cache is a thin JSON cache over Redis. A nil *Store is valid and
// behaves as an always-missing cache, so callers never branch on whether
// Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"nadlan/internal/logger"
)

// Keys shared by the services that read and invalidate them.
const (
	KeySettingsAll       = "settings:all"
	KeyDashboardOverview = "dashboard:overview"
)

// SettingKey returns the cache key of a single setting.
func SettingKey(key string) string { return "setting:" + key }

// Store caches JSON values with a fixed TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, log: logger.Named("cache")}
}

// Connect parses a redis:// URL and pings the server. An empty URL disables
// caching and returns a nil Store.
func Connect(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return New(client, ttl), nil
}

// Get loads key into dest. It reports false on a miss, on a disabled cache,
// and on any Redis or decode failure, which is logged.
func (s *Store) Get(ctx context.Context, key string, dest any) bool {
	if s == nil {
		return false
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warnw("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warnw("cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key with the store TTL.
func (s *Store) Set(ctx context.Context, key string, value any) {
	if s == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warnw("cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.log.Warnw("cache set failed", "key", key, "error", err)
	}
}

// Delete removes keys.
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if s == nil || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Warnw("cache delete failed", "keys", keys, "error", err)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
