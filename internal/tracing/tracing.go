// Package tracing wires distributed tracing around the discovery pipeline,
// adapted from the teacher product's internal/observability package: a
// tracer provider exporting to Jaeger or Zipkin, and a span-scoped helper the
// orchestrator calls around each pipeline stage.
package tracing

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// serviceName is the resource attribute every span from this process carries.
const serviceName = "compintel-discovery"

// Init builds a tracer provider exporting to backendURL (Jaeger collector by
// default, or Zipkin when the URL names it) and installs it as the global
// provider. A blank backendURL disables tracing: Init returns a no-op
// shutdown func and StartStage calls become cheap no-ops via otel's default
// no-op global tracer.
func Init(backendURL string) (shutdown func(context.Context) error, err error) {
	if strings.TrimSpace(backendURL) == "" {
		return func(context.Context) error { return nil }, nil
	}

	var exp sdktrace.SpanExporter
	if strings.Contains(strings.ToLower(backendURL), "zipkin") {
		exp, err = zipkin.New(backendURL)
	} else {
		exp, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(backendURL)))
	}
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the package-wide tracer, reading whatever provider Init (or
// otel's no-op default) installed globally.
func Tracer() trace.Tracer {
	return otel.Tracer(serviceName)
}

// StartStage starts a span named after a pipeline stage (spec.md §4's
// search/extract/score/dedup/persist stages) and returns the derived context
// alongside the span so the caller can defer span.End().
func StartStage(ctx context.Context, stage string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, stage)
}
