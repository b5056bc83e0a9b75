package settings

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the backend the store reads through. Get distinguishes a
// miss (found=false, nil error) from a backend failure (non-nil error);
// the store fails open to the repository on the latter.
type Cache interface {
	Get(ctx context.Context, key string) (raw []byte, found bool, err error)
	Set(ctx context.Context, key string, raw []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCache backs the store with Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a cache over client. prefix namespaces every
// key; empty means no namespace.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get implements [Cache].
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// Set implements [Cache].
func (c *RedisCache) Set(ctx context.Context, key string, raw []byte, ttl time.Duration) error {
	return c.client.Set(ctx, c.key(key), raw, ttl).Err()
}

// Del implements [Cache].
func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = c.key(k)
	}
	return c.client.Del(ctx, namespaced...).Err()
}
