package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter for the current window and
// reports {allowed, current_count, limit, retry_after}.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
local limit = tonumber(ARGV[1])
if current > limit then
	local ttl = redis.call("TTL", KEYS[1])
	if ttl < 0 then
		ttl = tonumber(ARGV[2])
	end
	return {0, current, limit, ttl}
end
return {1, current, limit, 0}
`)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// Result contains the result of a rate limit check
type Result struct {
	Allowed           bool  // Whether the request is allowed
	CurrentCount      int64 // Current count in the window
	Limit             int64 // The limit that was checked
	RetryAfterSeconds int64 // Seconds until the window resets (0 if allowed)
}

// Limiter checks a fixed-window counter for a key
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error)
}

// RateLimiter is a fixed-window limiter backed by Redis + Lua
type RateLimiter struct {
	redis  redis.Scripter
	prefix string
	logger Logger
}

// NewRateLimiter creates a new rate limiter. Keys are stored under
// "<prefix>:<key>".
func NewRateLimiter(redisClient redis.Scripter, prefix string, logger Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		prefix: prefix,
		logger: logger,
	}
}

// Allow counts one request against key in the current window
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*Result, error) {
	windowSec := int64(window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}
	fullKey := r.prefix + ":" + key

	// Run Lua script atomically
	raw, err := fixedWindowScript.Run(ctx, r.redis, []string{fullKey}, limit, windowSec).Result()
	if err != nil {
		r.logger.Error("rate limit check failed", "key", fullKey, "error", err)
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return nil, err
	}

	if !result.Allowed {
		r.logger.Warn("rate limit exceeded",
			"key", fullKey,
			"current", result.CurrentCount,
			"limit", limit,
			"retry_after", result.RetryAfterSeconds)
	} else {
		r.logger.Debug("rate limit check passed",
			"key", fullKey,
			"current", result.CurrentCount,
			"limit", limit)
	}

	return result, nil
}

// parseResult decodes {allowed, current_count, limit, retry_after}
func parseResult(raw interface{}) (*Result, error) {
	values, ok := raw.([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result format")
	}

	ints := make([]int64, len(values))
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result element %d: %T", i, v)
		}
		ints[i] = n
	}

	return &Result{
		Allowed:           ints[0] == 1,
		CurrentCount:      ints[1],
		Limit:             ints[2],
		RetryAfterSeconds: ints[3],
	}, nil
}
