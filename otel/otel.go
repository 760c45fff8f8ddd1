package otel

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config controls OTLP export of client spans and session metrics. Endpoint
// is the collector base URL, e.g. http://localhost:4318.
type Config struct {
	Enabled     bool
	Endpoint    string `validate:"required_if=Enabled true"`
	ServiceName string
	Environment string
	Headers     map[string]string
	SampleRate  float64 `validate:"gte=0,lte=1"`
}

// Init installs global trace and meter providers exporting over OTLP/HTTP.
// With telemetry disabled it returns a no-op shutdown and the globals keep
// their no-op defaults.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("otel: service name is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("otel: endpoint is required")
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return nil, fmt.Errorf("otel: sample rate must be between 0 and 1, got %f", cfg.SampleRate)
	}

	res := newResource(cfg)

	tracerShutdown, err := setupTracing(ctx, res, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup tracing: %w", err)
	}

	metricsShutdown, err := setupMetrics(ctx, res, cfg)
	if err != nil {
		_ = tracerShutdown(ctx)
		return nil, fmt.Errorf("failed to setup metrics: %w", err)
	}

	return func(ctx context.Context) error {
		return errors.Join(tracerShutdown(ctx), metricsShutdown(ctx))
	}, nil
}

func newResource(cfg Config) *resource.Resource {
	hostName, _ := os.Hostname()

	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
		semconv.HostName(hostName),
	)
}

func setupTracing(ctx context.Context, res *resource.Resource, cfg Config) (func(context.Context) error, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Endpoint)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SampleRate))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

func setupMetrics(ctx context.Context, res *resource.Resource, cfg Config) (func(context.Context) error, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(cfg.Endpoint)}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(provider)

	return provider.Shutdown, nil
}
