package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(Provide),
)

type Params struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Cfg   config.Config
	Clock clock.Clock
	Log   *zap.Logger
}

// Provide returns the login limiter, or nil when rate limiting is disabled.
func Provide(p Params) Limiter {
	cfg := p.Cfg.LoginRateLimit
	if !cfg.Enabled || cfg.PerMinute <= 0 || cfg.Burst <= 0 {
		return nil
	}

	log := p.Log.Named("rate.limit")
	policy := PerMinute(cfg.PerMinute, cfg.Burst)
	if p.Redis == nil {
		log.Info("login rate limit: memory", zap.Float64("per_minute", cfg.PerMinute), zap.Int("burst", cfg.Burst))
		return NewMemoryBucket(p.Clock, policy)
	}
	log.Info("login rate limit: redis", zap.Float64("per_minute", cfg.PerMinute), zap.Int("burst", cfg.Burst))
	return NewTokenBucket(p.Redis, policy)
}
