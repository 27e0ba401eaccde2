package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

// The bucket is a hash {tokens, ts} refilled on read using the Redis clock so
// every replica agrees on elapsed time. Tokens are returned as a string;
// Redis truncates Lua numbers to integers.
const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])

local t = redis.call("TIME")
local now = t[1] * 1000 + math.floor(t[2] / 1000)

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now

local elapsed = math.max(0, now - ts)
tokens = math.min(burst, tokens + elapsed / 1000 * rate)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now)
redis.call("PEXPIRE", KEYS[1], ARGV[3])
return {allowed, tostring(tokens)}
`

var errBucketResponse = errors.New("ratelimit: malformed bucket response")

type TokenBucket struct {
	client *redis.Client
	script *redis.Script
}

// Result is the outcome of one take. RetryAfter is zero when allowed.
type Result struct {
	Allowed    bool
	Remaining  float64
	RetryAfter time.Duration
}

func NewTokenBucket(client *redis.Client) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{client: client, script: redis.NewScript(tokenBucketScript)}
}

// Take removes one token from key, refilling at rate tokens/s up to burst.
func (t *TokenBucket) Take(ctx context.Context, key string, rate float64, burst int) (Result, error) {
	switch {
	case t == nil || t.client == nil:
		return Result{}, errors.New("ratelimit: bucket not configured")
	case key == "":
		return Result{}, errors.New("ratelimit: empty bucket key")
	case rate <= 0 || burst <= 0:
		return Result{}, errors.New("ratelimit: rate and burst must be positive")
	}

	ttl := bucketTTL(rate, burst)
	res, err := t.script.Run(ctx, t.client, []string{key}, rate, burst, ttl.Milliseconds()).Slice()
	if err != nil {
		return Result{}, err
	}
	return parseBucketResponse(res, rate)
}

func parseBucketResponse(res []interface{}, rate float64) (Result, error) {
	if len(res) != 2 {
		return Result{}, errBucketResponse
	}
	allowed, err := cast.ToInt64E(res[0])
	if err != nil {
		return Result{}, errBucketResponse
	}
	remaining, err := cast.ToFloat64E(res[1])
	if err != nil {
		return Result{}, errBucketResponse
	}

	out := Result{Allowed: allowed == 1, Remaining: remaining}
	if !out.Allowed && rate > 0 {
		out.RetryAfter = time.Duration((1 - remaining) / rate * float64(time.Second))
	}
	return out, nil
}

// bucketTTL keeps an idle bucket for twice its full refill time.
func bucketTTL(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	return time.Duration(max(1, math.Ceil(float64(burst)/rate*2))) * time.Second
}
