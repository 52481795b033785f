// Package telemetry wires OpenTelemetry tracing for the service.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Settings selects whether and where spans are exported.
type Settings struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	Endpoint       string // OTLP/HTTP collector URL
}

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider exporting to s.Endpoint.
//
// Export is opt-in: with an empty endpoint or Enabled false, Setup leaves
// the global no-op provider in place and returns a no-op shutdown. Spans
// are still created by the pipeline but cost nothing.
func Setup(ctx context.Context, s Settings, logger *slog.Logger) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if logger == nil {
		logger = slog.Default()
	}

	if !s.Enabled || s.Endpoint == "" {
		logger.Debug("tracing export disabled")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(s.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("telemetry: creating otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.ServiceName),
			semconv.ServiceVersion(s.ServiceVersion),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("telemetry: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("tracing export enabled", slog.String("endpoint", s.Endpoint))

	return tp.Shutdown, nil
}
