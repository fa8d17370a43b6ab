package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// The bucket state is a hash {tokens, ts}. Redis TIME is the clock so every
// replica refills the same bucket identically. Tokens go back as a string:
// Lua numbers returned to redis are truncated to integers.
var takeTokenScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local t = redis.call("TIME")
local now = tonumber(t[1]) * 1000 + math.floor(tonumber(t[2]) / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = burst
else
  local elapsed = math.max(0, now - ts)
  tokens = math.min(burst, tokens + elapsed / 1000 * rate)
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", KEYS[1], ttl)
return {allowed, tostring(tokens)}
`)

// Decision is the outcome of taking one token.
type Decision struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

// tokenBucket refills rate tokens per second up to burst.
type tokenBucket struct {
	client *redis.Client
	rate   float64
	burst  int
	ttl    time.Duration
}

func newTokenBucket(client *redis.Client, rate float64, burst int) (*tokenBucket, error) {
	if client == nil {
		return nil, errors.New("token bucket requires a redis client")
	}
	if rate <= 0 || burst <= 0 {
		return nil, fmt.Errorf("token bucket rate %v and burst %d must be positive", rate, burst)
	}
	return &tokenBucket{client: client, rate: rate, burst: burst, ttl: refillTTL(rate, burst)}, nil
}

func (b *tokenBucket) take(ctx context.Context, key string) (Decision, error) {
	res, err := takeTokenScript.Run(ctx, b.client, []string{key}, b.rate, b.burst, b.ttl.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("token bucket %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("token bucket %s: unexpected reply %v", key, res)
	}

	allowed, _ := res[0].(int64)
	remaining, err := strconv.ParseFloat(fmt.Sprint(res[1]), 64)
	if err != nil {
		return Decision{}, fmt.Errorf("token bucket %s: parse remaining: %w", key, err)
	}

	d := Decision{Allowed: allowed == 1, Remaining: remaining}
	if !d.Allowed {
		d.RetryAfter = time.Duration((1 - remaining) / b.rate * float64(time.Second))
	}
	return d, nil
}

// refillTTL keeps an idle bucket around for twice its full refill time.
func refillTTL(rate float64, burst int) time.Duration {
	seconds := math.Ceil(float64(burst) / rate * 2)
	return time.Duration(math.Max(seconds, 1)) * time.Second
}
