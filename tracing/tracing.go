// Package tracing sets up OpenTelemetry for the server.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer used by hostgate packages.
const InstrumentationName = "github.com/yourusername/hostgate"

// Config configures the tracer provider.
type Config struct {
	Enabled     bool
	ServiceName string
	// Writer receives exported spans. os.Stdout is used when nil.
	Writer io.Writer
}

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(ctx context.Context) error

// Setup returns a tracer provider and installs it, with the W3C trace
// context propagator, as the global one. A disabled Config yields a no-op
// provider.
func Setup(cfg Config) (trace.TracerProvider, ShutdownFunc, error) {
	if !cfg.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return tp, func(context.Context) error { return nil }, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, err
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "hostgate"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp, tp.Shutdown, nil
}

// Tracer returns the hostgate tracer of tp, or of the global provider when
// tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName)
}
