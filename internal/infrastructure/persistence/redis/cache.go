// Package redis implements Redis-backed caching for read paths and the
// distributed guard that keeps the daily maintenance run single-shot.
//
// Key components:
//   - Cache: general-purpose caching with TTL management
//   - UserCache: cached user profiles and preferences
//   - NotificationCache: cached per-user notification lists
//   - RunGuard: SetNX lock keyed by calendar date
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/studyhelper/studyhelper-hub/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss is returned when the requested key is not found in cache.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection is returned when Redis connection fails.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization is returned when serialization fails.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheInvalidTTL is returned when an invalid TTL is provided.
	ErrCacheInvalidTTL = errors.New("cache: invalid TTL")

	// ErrCacheKeyEmpty is returned when an empty key is provided.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrCacheNilValue is returned when attempting to cache a nil value.
	ErrCacheNilValue = errors.New("cache: value cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEY PREFIXES AND TTLs
// ══════════════════════════════════════════════════════════════════════════════

// Key prefixes for namespacing Redis keys.
const (
	// PrefixUser is the prefix for cached user profiles.
	PrefixUser = "user:"

	// PrefixNotifications is the prefix for cached notification lists.
	PrefixNotifications = "notifications:"

	// PrefixStreak is the prefix for cached streak summaries.
	PrefixStreak = "streak:"

	// PrefixLock is the prefix for distributed lock keys.
	PrefixLock = "lock:"
)

// Default TTL values for the different cached data types.
const (
	// TTLUserCache is the TTL for user profile data.
	TTLUserCache = 10 * time.Minute

	// TTLNotificationCache is the TTL for classified notification lists.
	// Classification depends only on the calendar day and revision state,
	// both of which invalidate explicitly, so a short TTL is a safety net.
	TTLNotificationCache = 5 * time.Minute

	// TTLStreakCache is the TTL for streak summaries.
	TTLStreakCache = 5 * time.Minute

	// TTLMaintenanceGuard outlives the day it guards so a late re-trigger
	// still hits the lock.
	TTLMaintenanceGuard = 26 * time.Hour
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache provides general-purpose caching functionality with Redis.
// It handles serialization, TTL management, and error handling. A circuit
// breaker sits in front of every call: when Redis is down, callers get
// ErrCircuitOpen immediately instead of waiting out timeouts.
type Cache struct {
	client  *redis.Client
	config  Config
	breaker *circuitbreaker.CircuitBreaker
}

// NewCache creates a new Cache instance with the given configuration.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	breaker := circuitbreaker.RedisBreaker(func(name string, from, to circuitbreaker.State) {
		slog.Warn("cache circuit state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return &Cache{
		client:  client,
		config:  cfg,
		breaker: breaker,
	}, nil
}

// execute runs an operation through the circuit breaker. Misses and
// client-side serialization problems are not Redis failures and must not
// trip the breaker; the operations below only route real I/O through here.
func (c *Cache) execute(ctx context.Context, op func(ctx context.Context) error) error {
	if c.breaker == nil {
		return op(ctx)
	}
	return c.breaker.Execute(ctx, op)
}

// BreakerState returns the current circuit breaker state.
func (c *Cache) BreakerState() circuitbreaker.State {
	return c.breaker.State()
}

// Client returns the underlying Redis client for advanced operations.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// BASIC OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// Set stores a value with the given key and TTL.
// The value is serialized to JSON before storage.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}
	if value == nil {
		return ErrCacheNilValue
	}
	if ttl < 0 {
		return ErrCacheInvalidTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return c.execute(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, ttl).Err()
	})
}

// Get retrieves and deserializes a value by key.
// Returns ErrCacheMiss if the key doesn't exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	var (
		data []byte
		miss bool
	)
	err := c.execute(ctx, func(ctx context.Context) error {
		b, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return err
	}
	if miss {
		return ErrCacheMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return nil
}

// GetString retrieves a string value without JSON deserialization.
func (c *Cache) GetString(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrCacheKeyEmpty
	}

	var (
		val  string
		miss bool
	)
	err := c.execute(ctx, func(ctx context.Context) error {
		v, err := c.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", ErrCacheMiss
	}

	return val, nil
}

// Delete removes keys from the cache.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.execute(ctx, func(ctx context.Context) error {
		return c.client.Del(ctx, keys...).Err()
	})
}

// Exists checks if a key exists in the cache.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}

	var count int64
	err := c.execute(ctx, func(ctx context.Context) error {
		n, err := c.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// TTL returns the remaining TTL for a key.
// Returns -2 if the key doesn't exist, -1 if the key has no TTL.
func (c *Cache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if key == "" {
		return 0, ErrCacheKeyEmpty
	}

	var ttl time.Duration
	err := c.execute(ctx, func(ctx context.Context) error {
		d, err := c.client.TTL(ctx, key).Result()
		if err != nil {
			return err
		}
		ttl = d
		return nil
	})
	return ttl, err
}

// SetNX sets a value only if the key doesn't exist (for distributed locks).
// Returns true when the key was set by this call.
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}
	if ttl < 0 {
		return false, ErrCacheInvalidTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	var acquired bool
	err = c.execute(ctx, func(ctx context.Context) error {
		ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
		if err != nil {
			return err
		}
		acquired = ok
		return nil
	})
	return acquired, err
}

// DeleteByPattern deletes all keys matching a pattern via SCAN.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return ErrCacheKeyEmpty
	}

	return c.execute(ctx, func(ctx context.Context) error {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string

		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
			if len(keys) >= 100 {
				if err := c.client.Del(ctx, keys...).Err(); err != nil {
					return err
				}
				keys = keys[:0]
			}
		}

		if err := iter.Err(); err != nil {
			return err
		}

		if len(keys) > 0 {
			return c.client.Del(ctx, keys...).Err()
		}

		return nil
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// KEY HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// UserKey generates a cache key for user data.
func UserKey(userID string) string {
	return PrefixUser + userID
}

// NotificationsKey generates a cache key for a user's notification list.
func NotificationsKey(userID string) string {
	return PrefixNotifications + userID
}

// StreakKey generates a cache key for a user's streak summary.
func StreakKey(userID string) string {
	return PrefixStreak + userID
}

// LockKey generates a cache key for distributed locks.
func LockKey(resource string) string {
	return PrefixLock + resource
}
