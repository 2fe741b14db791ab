// Package tracing wraps OpenTelemetry span handling. Spans are no-ops until
// Setup installs a tracer.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

// SetTracer sets the tracer used by StartSpan
func SetTracer(t trace.Tracer) {
	tracer = t
}

// StartSpan starts a span named after the operation. Without a tracer the
// context's current span is returned unchanged.
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// AgentID tags a span with the agent it operates on
func AgentID(id string) attribute.KeyValue {
	return attribute.String("clover.agent_id", id)
}

// AgentCount tags a span with the number of agents in a batch
func AgentCount(n int) attribute.KeyValue {
	return attribute.Int("clover.agent_count", n)
}

// Fail records err on the span and marks it failed. It returns err so callers
// can write `return tracing.Fail(span, err)`.
func Fail(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// GetTraceID returns the trace id of the context's span, or "" when there is none
func GetTraceID(ctx context.Context) string {
	if tracer == nil {
		return ""
	}
	spanContext := trace.SpanContextFromContext(ctx)
	if !spanContext.IsValid() {
		return ""
	}
	return spanContext.TraceID().String()
}
