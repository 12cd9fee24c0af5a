package redisinfra

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-video-intake/internal/domain"
	"github.com/redis/go-redis/v9"
)

var slidingWindowScript = redis.NewScript(`
local now_ms = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local window_ms = tonumber(ARGV[3])

local window_key = KEYS[1]
local seq_key = KEYS[2]

redis.call("ZREMRANGEBYSCORE", window_key, "-inf", now_ms - window_ms)
local count = redis.call("ZCARD", window_key)

if count < limit then
  local seq = redis.call("INCR", seq_key)
  redis.call("ZADD", window_key, now_ms, tostring(now_ms) .. "-" .. tostring(seq))
  redis.call("PEXPIRE", window_key, window_ms)
  redis.call("PEXPIRE", seq_key, window_ms)
  return {1, 0}
end

local retry_ms = window_ms
local oldest = redis.call("ZRANGE", window_key, 0, 0, "WITHSCORES")
if oldest and oldest[2] then
  retry_ms = math.ceil((tonumber(oldest[2]) + window_ms) - now_ms)
end
if retry_ms <= 0 then
  retry_ms = 1
end
return {0, retry_ms}
`)

// WindowLimiter is a sliding-window limiter shared by all instances through Redis.
type WindowLimiter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewWindowLimiter(client redis.UniversalClient, prefix string) *WindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &WindowLimiter{client: client, prefix: prefix, now: time.Now}
}

// Allow admits at most limit events per key within window.
func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	if l.client == nil {
		return false, 0, fmt.Errorf("redis client is nil")
	}
	if limit <= 0 {
		return false, window, nil
	}
	if key == "" {
		key = "unknown"
	}
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}
	storeKey := fmt.Sprintf("%s:%s", l.prefix, key)
	raw, err := slidingWindowScript.Run(ctx, l.client,
		[]string{storeKey + ":sw", storeKey + ":seq"},
		l.now().UnixMilli(), limit, windowMS,
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("%w: redis rate limit: %w", domain.ErrStoreUnavailable, err)
	}
	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis script response type")
	}
	allowed, err := parseRedisInt64(values[0])
	if err != nil {
		return false, 0, err
	}
	retryMS, err := parseRedisInt64(values[1])
	if err != nil {
		return false, 0, err
	}
	return allowed == 1, time.Duration(retryMS) * time.Millisecond, nil
}

func parseRedisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
