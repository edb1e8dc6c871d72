package observability

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordCreate(_ context.Context, _ string, _ error)         {}
func (NoopMetrics) RecordDestroy(_ context.Context, _ string)                 {}
func (NoopMetrics) RecordRun(_ context.Context, _ string, _ float64, _ error) {}
func (NoopMetrics) RecordGrow(_ context.Context, _ int)                       {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartCreateSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartCreateSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartRunSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRunSpan(ctx context.Context, _ string, _ uint32, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}
