package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans.
const TracerName = "github.com/notaris/backend"

// StartServiceSpan starts an internal span named "{service}.{method}",
// e.g. "registry.record". The caller ends it, usually through End.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("%s.%s", service, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records err (if any) on span and ends it. Designed for
// `defer func() { telemetry.End(span, err) }()`.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TenantAttr tags a span with the office id.
func TenantAttr(id uuid.UUID) attribute.KeyValue {
	return attribute.String("notaris.tenant_id", id.String())
}

// IDAttr tags a span with an entity id under key.
func IDAttr(key string, id uuid.UUID) attribute.KeyValue {
	return attribute.String(key, id.String())
}

// GetTraceID returns the current trace id, or "" outside a sampled span.
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
