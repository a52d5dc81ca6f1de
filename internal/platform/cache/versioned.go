package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Versioned caches JSON values under keys suffixed with a namespace version.
// Bump increments the version so every older key stops being read and ages
// out through its TTL.
type Versioned struct {
	client     *redis.Client
	namespace  string
	versionKey string
	ttl        time.Duration
}

// NewVersioned builds a cache for namespace. A nil client disables caching.
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration) *Versioned {
	return &Versioned{
		client:     client,
		namespace:  namespace,
		versionKey: namespace + ":version",
		ttl:        ttl,
	}
}

// Version returns the current namespace version, initialising it when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, c.versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Key composes a cache key from parts and the current version.
func (c *Versioned) Key(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{c.namespace}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON decodes the cached value at key into dest, or runs loader and
// stores its result.
func (c *Versioned) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return err
		}
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every key of the namespace.
func (c *Versioned) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey).Err()
}
