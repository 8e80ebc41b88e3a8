// Package cache is a small Redis-backed response cache used to avoid
// re-fetching keyword research inside the scrape window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressbot/pressbot/pkg/config"
	"github.com/pressbot/pressbot/pkg/errors"
)

// Cache key prefixes
const (
	PrefixKeywords  = "keywords"
	PrefixAnalytics = "analytics"
)

// Key generates cache keys with consistent prefixes
type Key struct {
	Prefix string
	ID     string
}

// String returns the formatted cache key
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Prefix, k.ID)
}

// Service provides JSON value caching on Redis
type Service struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// New connects to Redis and verifies the connection
func New(cfg *config.RedisConfig, defaultTTL time.Duration) (*Service, error) {
	if cfg == nil {
		return nil, errors.NewValidationError("redis configuration is required")
	}
	if defaultTTL <= 0 {
		defaultTTL = 1 * time.Hour
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.NewDatabaseError("failed to connect to redis").WithCause(err)
	}

	return &Service{client: client, defaultTTL: defaultTTL}, nil
}

// Close closes the Redis connection
func (s *Service) Close() error {
	return s.client.Close()
}

// Health checks the Redis connection
func (s *Service) Health(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.NewDatabaseError("cache health check failed").WithCause(err)
	}
	return nil
}

// Set stores a JSON-serialized value with the given TTL (0 uses the default)
func (s *Service) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError("failed to serialize cache value").WithCause(err)
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		return errors.NewDatabaseError("failed to set cache value").WithCause(err)
	}
	return nil
}

// Get retrieves a value into dest. The boolean reports whether the key was
// present; a miss is not an error.
func (s *Service) Get(ctx context.Context, key Key, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.NewDatabaseError("failed to get cache value").WithCause(err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, errors.NewInternalError("failed to deserialize cache value").WithCause(err)
	}
	return true, nil
}

// Delete removes a key
func (s *Service) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return errors.NewDatabaseError("failed to delete cache key").WithCause(err)
	}
	return nil
}
