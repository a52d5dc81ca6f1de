package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options returns client options for addr, which may be a host:port pair or
// a redis:// URL carrying credentials and database.
func Options(addr string) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("platform/cache: parse url: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: addr}, nil
}

// New creates a Redis client and verifies it answers.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := Options(addr)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}
