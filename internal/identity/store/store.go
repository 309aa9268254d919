package store

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/coursehub/internal/clock"
	"github.com/smallbiznis/coursehub/internal/config"
	"github.com/smallbiznis/coursehub/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Redis *redis.Client `optional:"true"`
	Cfg   config.Config
	Clock clock.Clock
	Log   *zap.Logger
}

// Provide selects redis when a client is configured and process memory
// otherwise.
func Provide(p Params) domain.Store {
	log := p.Log.Named("identity.store")

	if p.Redis == nil {
		log.Info("session store: memory")
		return NewMemoryStore(p.Clock, p.Cfg.SessionTTL)
	}
	log.Info("session store: redis")
	return NewRedisStore(p.Redis, p.Cfg.SessionTTL)
}
