// Package telemetry wires OpenTelemetry tracing and metrics for this
// engine: stdout exporters as the zero-config default (matching the
// teacher's `otel.Tracer(name)` instrumentation style in
// services/trace/agent/providers), with a Prometheus exporter available
// for scrape-based deployments.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TracerName is the shared OTel tracer name for this engine's build/rank
// spans, mirroring the teacher's per-package tracer-name constant.
const TracerName = "repomap"

// Options configures Setup.
type Options struct {
	// ServiceName is attached to every span/metric as a resource attribute.
	ServiceName string
	// PrometheusEnabled registers a Prometheus exporter alongside the
	// stdout metric exporter, on the default Prometheus registry; no HTTP
	// handler in this module serves that registry.
	PrometheusEnabled bool
}

// Shutdown flushes and stops every configured provider.
type Shutdown func(context.Context) error

// Setup installs global TracerProvider and MeterProvider instances, per
// the AMBIENT STACK's telemetry section. Call once at process startup;
// the returned Shutdown should run during graceful shutdown.
func Setup(ctx context.Context, opts Options) (Shutdown, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceNameOrDefault(opts.ServiceName)),
	))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)

	metricReaders := []sdkmetric.Option{}
	stdoutExporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("create stdout metric exporter: %w", err)
	}
	metricReaders = append(metricReaders, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(stdoutExporter)))

	if opts.PrometheusEnabled {
		promExporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		metricReaders = append(metricReaders, sdkmetric.WithReader(promExporter))
	}

	meterProvider := sdkmetric.NewMeterProvider(append(metricReaders, sdkmetric.WithResource(res))...)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(shutdownCtx context.Context) error {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown meter provider: %w", err)
		}
		return nil
	}
	return shutdown, nil
}

// Tracer returns the shared engine tracer, for packages that prefer the
// teacher's `otel.Tracer(name)` call-site pattern over dependency
// injection.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Meter returns the shared engine meter.
func Meter() metric.Meter {
	return otel.Meter(TracerName)
}

func serviceNameOrDefault(name string) string {
	if name == "" {
		return "repomap"
	}
	return name
}
