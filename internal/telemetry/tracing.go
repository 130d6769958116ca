package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config selects where telemetry goes. Endpoint is either a collector base URL
// ("http://collector:4318", as in OTEL_EXPORTER_OTLP_ENDPOINT) or a bare
// host:port. An empty Endpoint disables export.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Insecure       bool
}

// Providers holds the tracer and meter providers built by Setup.
type Providers struct {
	Tracer   trace.TracerProvider
	Meter    *sdkmetric.MeterProvider
	shutdown []func(context.Context) error
}

// Shutdown flushes and stops every provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var first error
	for _, fn := range p.shutdown {
		if err := fn(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Setup builds the providers. Spans and metrics are exported over OTLP/HTTP
// only when an endpoint is configured; otherwise a no-op tracer is used and
// metrics stay in-process.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	if cfg.Endpoint == "" {
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		return &Providers{
			Tracer:   noop.NewTracerProvider(),
			Meter:    mp,
			shutdown: []func(context.Context) error{mp.Shutdown},
		}, nil
	}

	traceURL, err := signalURL(cfg, "/v1/traces")
	if err != nil {
		return nil, err
	}
	metricURL, err := signalURL(cfg, "/v1/metrics")
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(traceURL))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}
	metricExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(metricURL))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	return &Providers{
		Tracer:   tp,
		Meter:    mp,
		shutdown: []func(context.Context) error{tp.Shutdown, mp.Shutdown},
	}, nil
}

// signalURL resolves the export URL for one signal. A base URL gets the
// signal path appended; a host:port gets a scheme from cfg.Insecure.
func signalURL(cfg Config, signalPath string) (string, error) {
	raw := cfg.Endpoint
	if !strings.Contains(raw, "://") {
		scheme := "https"
		if cfg.Insecure {
			scheme = "http"
		}
		raw = scheme + "://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("telemetry: invalid OTLP endpoint %q", cfg.Endpoint)
	}
	u.Path = strings.TrimRight(u.Path, "/") + signalPath
	return u.String(), nil
}
