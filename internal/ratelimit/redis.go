package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/valai/valai-api/internal/storage"
)

// Sliding window over a Redis sorted set, one set per user, scored by
// request time in seconds. The whole purge-count-insert sequence runs as
// one Lua script so concurrent checks for the same user cannot both be
// admitted into the last free slot. Safe across horizontally scaled
// instances; Redis is the single source of truth.
type RedisLimiter struct {
	redis  *storage.RedisClient
	script *redis.Script
	limit  int
	window int // seconds
}

var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current = redis.call('ZCARD', key)

if current >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_in = 1
    if oldest[2] then
        reset_in = math.ceil(tonumber(oldest[2]) + window - now) + 1
        if reset_in < 1 then
            reset_in = 1
        end
    end
    return {0, 0, reset_in}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('EXPIRE', key, window + 10)

return {1, limit - current - 1, window}
`)

func NewRedisLimiter(redisClient *storage.RedisClient) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		script: slidingWindowScript,
		limit:  Requests,
		window: WindowSeconds,
	}
}

func (l *RedisLimiter) CheckAndRecord(ctx context.Context, userID string) (Result, error) {
	key := fmt.Sprintf("rate_limit:chat:%s", userID)
	now := float64(time.Now().UnixMicro()) / 1e6

	// Member must be unique per request; two checks can share a timestamp
	raw, err := l.script.Run(ctx, l.redis.Client(), []string{key},
		now, l.window, l.limit, uuid.NewString()).Result()
	if err != nil {
		// Fail closed: an unreachable backend rejects the request rather
		// than admitting unlimited traffic
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	vals, ok := raw.([]interface{})
	if !ok || len(vals) != 3 {
		return Result{}, fmt.Errorf("rate limit script returned unexpected value %v", raw)
	}

	allowed, _ := vals[0].(int64)
	remaining, _ := vals[1].(int64)
	resetIn, _ := vals[2].(int64)

	return Result{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   int(resetIn),
	}, nil
}
