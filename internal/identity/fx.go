package identity

import (
	"github.com/smallbiznis/coursehub/internal/identity/service"
	"github.com/smallbiznis/coursehub/internal/identity/session"
	"github.com/smallbiznis/coursehub/internal/identity/store"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(service.New),
	fx.Provide(store.Provide),
	fx.Provide(session.NewManager),
)
