// Package traces wires OpenTelemetry tracing for the Carbon Risk Tracker.
package traces

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "github.com/cialabs/carbonrisk"
	serviceName    = "carbonrisk"
	serviceVersion = "0.1.0"
)

// Init sets the global tracer provider, exporting spans over OTLP/gRPC to
// otlpEndpoint. With an empty endpoint tracing stays a no-op, so local runs
// need no collector. The returned shutdown flushes pending spans and must be
// called on server stop.
func Init(ctx context.Context, otlpEndpoint string, logger *slog.Logger) (func(context.Context) error, error) {
	if otlpEndpoint == "" {
		logger.Info("tracing disabled (no OTEL_EXPORTER_OTLP_ENDPOINT set)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otlpEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing enabled", "endpoint", otlpEndpoint)
	return tp.Shutdown, nil
}

// StartSpan opens a span on the global tracer with optional attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// Attribute helpers keep span decoration consistent between the risk
// evaluator and the CSV importer.

func UserID(id string) attribute.KeyValue {
	return attribute.String("user.id", id)
}

func FootprintCount(n int) attribute.KeyValue {
	return attribute.Int("footprints.count", n)
}

func RegionCount(n int) attribute.KeyValue {
	return attribute.Int("regions.count", n)
}

func EmissionsTons(tons float64) attribute.KeyValue {
	return attribute.Float64("emissions.tons", tons)
}

func CSVRows(n int) attribute.KeyValue {
	return attribute.Int("csv.rows", n)
}
