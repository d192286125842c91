package observability

import (
	"context"

	"github.com/metrobox/forestry-pots/internal/config"
	"github.com/metrobox/forestry-pots/internal/observability/metrics"
	"github.com/metrobox/forestry-pots/internal/observability/tracing"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires tracing and metrics providers plus the portal instruments.
var Module = fx.Module("observability",
	fx.Provide(newTracerProvider),
	fx.Provide(newMeterProvider),
	fx.Provide(newHTTPMetrics),
	fx.Provide(newDownloadMetrics),
	// Force tracer setup at startup; nothing else consumes the provider
	// directly, spans are started through the otel global.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func newTracerProvider(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	return tracing.NewProvider(lc, tracing.Config{
		Enabled:          cfg.Telemetry.Enabled,
		ServiceName:      cfg.Telemetry.ServiceName,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
		ExporterProtocol: cfg.Telemetry.ExporterProtocol,
		SamplingRatio:    cfg.Telemetry.SamplingRatio,
	}, log)
}

func newMeterProvider(lc fx.Lifecycle, cfg config.Config) (metric.MeterProvider, error) {
	if !cfg.Telemetry.Enabled {
		return noop.NewMeterProvider(), nil
	}

	exporter, err := otlpmetrichttp.New(context.Background(),
		otlpmetrichttp.WithEndpoint(cfg.Telemetry.ExporterEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

func newHTTPMetrics(cfg config.Config, provider metric.MeterProvider) (*metrics.HTTPMetrics, error) {
	return metrics.NewHTTPMetrics(cfg.Telemetry.ServiceName, provider)
}

func newDownloadMetrics(cfg config.Config) *metrics.DownloadMetrics {
	return metrics.Download(metrics.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
	})
}
