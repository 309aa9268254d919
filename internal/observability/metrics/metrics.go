package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	billingRequests metric.Int64Counter
	billingLatency  metric.Float64Histogram
	purchases       metric.Int64Counter
	tokenRefreshes  metric.Int64Counter
	logins          metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "coursehub"
	}
	meter := provider.Meter(name)

	billingRequests, err := meter.Int64Counter("coursehub_billing_requests_total")
	if err != nil {
		return nil, err
	}
	billingLatency, err := meter.Float64Histogram("coursehub_billing_request_duration_seconds")
	if err != nil {
		return nil, err
	}
	purchases, err := meter.Int64Counter("coursehub_purchases_total")
	if err != nil {
		return nil, err
	}
	tokenRefreshes, err := meter.Int64Counter("coursehub_token_refresh_total")
	if err != nil {
		return nil, err
	}
	logins, err := meter.Int64Counter("coursehub_logins_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		billingRequests: billingRequests,
		billingLatency:  billingLatency,
		purchases:       purchases,
		tokenRefreshes:  tokenRefreshes,
		logins:          logins,
	}, nil
}

// RecordBillingRequest counts one outbound billing call by method and status class.
func (m *Metrics) RecordBillingRequest(ctx context.Context, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("method", strings.ToUpper(strings.TrimSpace(method))),
		attribute.String("status_class", StatusClass(status)),
	)
	m.billingRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.billingLatency.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordPurchase counts purchase attempts by outcome.
func (m *Metrics) RecordPurchase(ctx context.Context, courseType, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("course_type", strings.TrimSpace(courseType)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.purchases.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordTokenRefresh counts refresh attempts by outcome.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.tokenRefreshes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordLogin counts login and registration attempts by outcome.
func (m *Metrics) RecordLogin(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.logins.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// StatusClass buckets an HTTP status, 0 meaning the request never completed.
func StatusClass(status int) string {
	switch {
	case status <= 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"method":       {},
	"status_class": {},
	"course_type":  {},
	"outcome":      {},
	"kind":         {},
	"route":        {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
