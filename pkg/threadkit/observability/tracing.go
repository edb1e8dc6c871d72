package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("threadkit")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCreateSpan starts a span covering a Create call.
	StartCreateSpan(ctx context.Context, registryID, target string) (context.Context, trace.Span)

	// StartRunSpan starts a span for a callback running on its thread.
	StartRunSpan(ctx context.Context, registryID string, handle uint32, target string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartCreateSpan(ctx context.Context, registryID, target string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "threadkit.create",
		trace.WithAttributes(
			attribute.String("registry.id", registryID),
			attribute.String("thread.target", target),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartRunSpan(ctx context.Context, registryID string, handle uint32, target string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "threadkit.thread.run",
		trace.WithAttributes(
			attribute.String("registry.id", registryID),
			attribute.Int64("thread.handle", int64(handle)),
			attribute.String("thread.target", target),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
