// Package tracing propagates OpenTelemetry trace context across the event
// bus.
//
// The producer injects the active span context into the outgoing detail
// payload under the trace_context field; the consumer extracts it again so
// its processing span joins the producer's trace. The Client is constructed
// explicitly and passed into producer/consumer constructors; provider and
// exporter lifecycle stay with the application.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TraceContextField is the reserved detail field carrying the propagation
// carrier.
const TraceContextField = "trace_context"

const tracerName = "github.com/drblury/schemabus"

// Client wraps a tracer and a text-map propagator.
type Client struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// New builds a Client from a tracer provider and propagator. A nil provider
// yields no-op spans; a nil propagator defaults to W3C TraceContext.
func New(provider trace.TracerProvider, propagator propagation.TextMapPropagator) *Client {
	if provider == nil {
		provider = noop.NewTracerProvider()
	}
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}
	return &Client{
		tracer:     provider.Tracer(tracerName),
		propagator: propagator,
	}
}

// Noop returns a Client that records nothing and propagates nothing useful.
// Used when tracing is disabled.
func Noop() *Client {
	return New(nil, nil)
}

// Start opens a span.
func (c *Client) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Inject writes the active trace context into detail under the
// trace_context field. No field is added when the context carries no span.
func (c *Client) Inject(ctx context.Context, detail map[string]any) {
	carrier := propagation.MapCarrier{}
	c.propagator.Inject(ctx, carrier)
	if len(carrier) == 0 {
		return
	}
	tc := make(map[string]any, len(carrier))
	for k, v := range carrier {
		tc[k] = v
	}
	detail[TraceContextField] = tc
}

// Extract reads the trace context embedded in detail. Returns ctx unchanged
// when the field is absent or malformed.
func (c *Client) Extract(ctx context.Context, detail map[string]any) context.Context {
	raw, ok := detail[TraceContextField]
	if !ok {
		return ctx
	}

	carrier := propagation.MapCarrier{}
	switch tc := raw.(type) {
	case map[string]any:
		for k, v := range tc {
			if s, ok := v.(string); ok {
				carrier[k] = s
			}
		}
	case map[string]string:
		for k, v := range tc {
			carrier[k] = v
		}
	default:
		return ctx
	}

	return c.propagator.Extract(ctx, carrier)
}
