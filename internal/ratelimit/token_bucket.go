package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const tokenBucketScript = `
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local nowData = redis.call("TIME")
local now = (nowData[1] * 1000) + math.floor(nowData[2] / 1000)

local data = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])

if tokens == nil then
  tokens = burst
  ts = now
else
  local delta = now - ts
  if delta < 0 then
    delta = 0
  end
  tokens = math.min(burst, tokens + (delta / 1000) * rate)
  ts = now
end

local allowed = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
end

redis.call("HMSET", KEYS[1], "tokens", tokens, "ts", ts)
redis.call("PEXPIRE", KEYS[1], ttl)

return {allowed, math.floor(tokens * 1000)}
`

// TokenBucket keeps one bucket per key in redis so every replica shares the
// same budget.
type TokenBucket struct {
	client *redis.Client
	script *redis.Script
	policy Policy
	prefix string
}

func NewTokenBucket(client *redis.Client, policy Policy) *TokenBucket {
	if client == nil {
		return nil
	}
	return &TokenBucket{
		client: client,
		script: redis.NewScript(tokenBucketScript),
		policy: policy,
		prefix: "coursehub:ratelimit:",
	}
}

func (t *TokenBucket) Allow(ctx context.Context, key string) (Result, error) {
	if t == nil || t.client == nil {
		return Result{}, errors.New("rate limiter not configured")
	}
	if err := t.policy.validate(key); err != nil {
		return Result{}, err
	}

	ttl := bucketTTL(t.policy)
	res, err := t.script.Run(ctx, t.client, []string{t.prefix + key},
		t.policy.Rate,
		t.policy.Burst,
		ttl.Milliseconds(),
	).Slice()
	if err != nil {
		return Result{}, err
	}
	if len(res) < 2 {
		return Result{}, errors.New("invalid rate limit script response")
	}

	// tokens come back scaled by 1000; redis truncates lua numbers to integers
	remaining := float64(toInt64(res[1])) / 1000
	return t.policy.result(toInt64(res[0]) == 1, remaining), nil
}

func bucketTTL(p Policy) time.Duration {
	seconds := math.Ceil((float64(p.Burst) / p.Rate) * 2)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
