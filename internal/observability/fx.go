package observability

import (
	"github.com/mandarons/wapar/internal/config"
	"github.com/mandarons/wapar/internal/observability/logger"
	"github.com/mandarons/wapar/internal/observability/metrics"
	"github.com/mandarons/wapar/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module provides the zap logger, OTLP trace and metric providers, and the
// prometheus collectors shared by the HTTP server and the scheduler.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
	fx.Invoke(registerSchedulerMetrics),
)

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

// Exporters stay off under ENVIRONMENT=test so suites never dial a collector.
func provideTracingConfig(cfg Config, app config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled && app.Environment != config.EnvTest,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config, app config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled && app.Environment != config.EnvTest,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}

// registerSchedulerMetrics labels the scheduler collectors before the first job runs.
func registerSchedulerMetrics(cfg metrics.Config) {
	metrics.SchedulerWithConfig(cfg)
}
