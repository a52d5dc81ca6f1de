package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// reserveScript trims the window, then either records the request and returns 0
// or returns the milliseconds until the oldest entry expires.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return 0
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = tonumber(oldest[2]) + window - now
if wait < 1 then
  wait = 1
end
return wait
`)

// RedisWindow is a sliding-window governor shared by every process using the same key.
type RedisWindow struct {
	client *redis.Client
	key    string
	limit  int
	window time.Duration
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRedisWindow builds a distributed governor. limit <= 0 disables it.
func NewRedisWindow(client *redis.Client, key string, limit int, window time.Duration) *RedisWindow {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{
		client: client,
		key:    key,
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait implements Limiter.
func (w *RedisWindow) Wait(ctx context.Context) error {
	if w == nil || w.limit <= 0 {
		return nil
	}
	for {
		wait, err := w.reserve(ctx)
		if err != nil {
			return err
		}
		if wait <= 0 {
			return nil
		}
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (w *RedisWindow) reserve(ctx context.Context) (time.Duration, error) {
	nowMs := w.now().UnixMilli()
	res, err := reserveScript.Run(ctx, w.client, []string{w.key},
		nowMs, w.window.Milliseconds(), w.limit, uuid.NewString()).Int64()
	if err != nil {
		return 0, fmt.Errorf("ai: reserve slot: %w", err)
	}
	return time.Duration(res) * time.Millisecond, nil
}
