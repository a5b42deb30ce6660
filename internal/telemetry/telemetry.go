// Package telemetry installs an OpenTelemetry tracer provider for parkfinder.
//
// Tracing is off unless OTEL_EXPORTER_OTLP_ENDPOINT is set. When it is set,
// spans are batched to that endpoint over OTLP/HTTP; the exporter reads the
// standard OTEL_EXPORTER_OTLP_* variables itself.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	EndpointEnv    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	ServiceNameEnv = "OTEL_SERVICE_NAME"
	DefaultService = "parkfinder"
)

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global OTLP tracer provider if the endpoint variable is set.
// getenv is usually os.Getenv. The returned ShutdownFunc is never nil.
func Setup(ctx context.Context, getenv func(string) string) (ShutdownFunc, bool, error) {
	if getenv(EndpointEnv) == "" {
		return noopShutdown, false, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return noopShutdown, false, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(getenv)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, true, nil
}

func newResource(getenv func(string) string) *resource.Resource {
	serviceName := getenv(ServiceNameEnv)
	if serviceName == "" {
		serviceName = DefaultService
	}
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
}
