package billing

import (
	"github.com/smallbiznis/coursehub/internal/billing/client"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.client",
	fx.Provide(client.New),
)
