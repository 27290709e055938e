package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"valido/pkg/identifier"
)

const cacheKeyPrefix = "screen:"

// RedisCache is a Redis-backed screening cache. Verdicts are deterministic
// for a given day, so a short TTL only bounds staleness of the date-relative
// checks (future birth dates).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a cache over an externally managed client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(kind identifier.Kind, value string) string {
	return fmt.Sprintf("%s%s:%s", cacheKeyPrefix, kind, value)
}

func (c *RedisCache) Get(ctx context.Context, kind identifier.Kind, value string) (*Result, error) {
	payload, err := c.client.Get(ctx, cacheKey(kind, value)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("screening cache get: %w", err)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		// A corrupt entry behaves like an outage for this key.
		return nil, fmt.Errorf("screening cache decode: %w", err)
	}
	return &result, nil
}

func (c *RedisCache) Set(ctx context.Context, kind identifier.Kind, value string, result *Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("screening cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(kind, value), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("screening cache set: %w", err)
	}
	return nil
}
