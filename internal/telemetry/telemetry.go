// Package telemetry bootstraps the OpenTelemetry tracer provider nodebridge's
// designapi.HTTPClient pulls its tracer from (otel.Tracer("nodebridge/designapi")
// in internal/designapi/client.go, grounded on petal-labs/petalflow's
// otel/tracing.go span style). The pack carries no provider-bootstrap
// exemplar — petalflow's otel package only builds spans against an
// already-configured global tracer — so the SDK wiring here follows
// go.opentelemetry.io/otel/sdk's own standard construction
// (otlptracehttp exporter + sdktrace.TracerProvider + otel.SetTracerProvider).
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/nodebridge-labs/nodebridge/internal/version"
)

// Shutdown flushes and stops the tracer provider installed by Init.
type Shutdown func(ctx context.Context) error

// noopShutdown is returned when endpoint is empty, so callers can always
// defer the returned Shutdown unconditionally.
func noopShutdown(context.Context) error { return nil }

// Init installs a global TracerProvider exporting spans to endpoint over
// OTLP/HTTP. An empty endpoint disables export entirely (spec.md's
// "external renderer invocation... out of scope" analog for telemetry:
// tracing is opt-in, never required to run the server).
func Init(ctx context.Context, endpoint string) (Shutdown, error) {
	if endpoint == "" {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return noopShutdown, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName("nodebridge"),
		semconv.ServiceVersion(version.Version),
	))
	if err != nil {
		return noopShutdown, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
