package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records threadkit metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordCreate records a create attempt for target.
	RecordCreate(ctx context.Context, target string, err error)

	// RecordDestroy records a destroyed thread.
	RecordDestroy(ctx context.Context, target string)

	// RecordRun records a finished callback with its duration and fault status.
	RecordRun(ctx context.Context, target string, durationMs float64, err error)

	// RecordGrow records a table growth event.
	RecordGrow(ctx context.Context, capacity int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	created   metric.Int64Counter
	destroyed metric.Int64Counter
	faults    metric.Int64Counter
	grows     metric.Int64Counter
	runTime   metric.Float64Histogram
	active    metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("threadkit")

	created, err := meter.Int64Counter("threadkit.threads.created",
		metric.WithDescription("Number of create attempts"),
	)
	if err != nil {
		return nil, err
	}

	destroyed, err := meter.Int64Counter("threadkit.threads.destroyed",
		metric.WithDescription("Number of destroyed threads"),
	)
	if err != nil {
		return nil, err
	}

	faults, err := meter.Int64Counter("threadkit.threads.faults",
		metric.WithDescription("Number of callbacks that faulted"),
	)
	if err != nil {
		return nil, err
	}

	grows, err := meter.Int64Counter("threadkit.table.grows",
		metric.WithDescription("Number of thread table growth events"),
	)
	if err != nil {
		return nil, err
	}

	runTime, err := meter.Float64Histogram("threadkit.thread.run_ms",
		metric.WithDescription("Callback run time in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter("threadkit.threads.active",
		metric.WithDescription("Occupied thread slots"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		created:   created,
		destroyed: destroyed,
		faults:    faults,
		grows:     grows,
		runTime:   runTime,
		active:    active,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordCreate(ctx context.Context, target string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("target", target),
		attribute.Bool("success", err == nil),
	)
	m.created.Add(ctx, 1, attrs)
	if err == nil {
		m.active.Add(ctx, 1)
	}
}

func (m *otelMetrics) RecordDestroy(ctx context.Context, target string) {
	m.destroyed.Add(ctx, 1, metric.WithAttributes(attribute.String("target", target)))
	m.active.Add(ctx, -1)
}

func (m *otelMetrics) RecordRun(ctx context.Context, target string, durationMs float64, err error) {
	attrs := metric.WithAttributes(attribute.String("target", target))
	m.runTime.Record(ctx, durationMs, attrs)
	if err != nil {
		m.faults.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordGrow(ctx context.Context, capacity int) {
	m.grows.Add(ctx, 1, metric.WithAttributes(attribute.Int("capacity", capacity)))
}
