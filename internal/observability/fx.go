package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/coursehub/internal/observability/logger"
	"github.com/smallbiznis/coursehub/internal/observability/metrics"
	"github.com/smallbiznis/coursehub/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the zap logger, the tracer and meter providers, the
// billing instruments and the prometheus HTTP collectors.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		func() (*metrics.HTTPMetrics, error) {
			return metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
		},
	),
	// Nothing depends on the tracer provider directly; force it so the
	// global provider and propagator are installed.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
