package threadkit

import (
	"log/slog"

	"github.com/randalmurphal/threadkit/pkg/threadkit/journal"
	"github.com/randalmurphal/threadkit/pkg/threadkit/observability"
)

// registryConfig holds configuration for a Registry.
type registryConfig struct {
	blockSize    int
	maxThreads   int
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	journal      journal.Store
	registryID   string
	destroyWaits bool
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		blockSize: DefaultBlockSize,
		logger:    slog.Default(),
		metrics:   observability.NoopMetrics{},
		spans:     observability.NoopSpanManager{},
	}
}

// Option configures a Registry.
type Option func(*registryConfig)

// WithBlockSize sets how many slots the table adds when it grows.
// Default: 8
func WithBlockSize(n int) Option {
	return func(c *registryConfig) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithMaxThreads limits how many threads may ever be created by the
// registry. Handles are not recycled, so destroyed threads still count.
// Create fails with ErrResourceExhausted past the limit. Default: 0 (no limit).
func WithMaxThreads(n int) Option {
	return func(c *registryConfig) {
		if n >= 0 {
			c.maxThreads = n
		}
	}
}

// WithLogger sets the logger. Thread loggers are derived from it with
// registry_id, handle, and target fields.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics using the global meter provider.
func WithMetrics(enabled bool) Option {
	return func(c *registryConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing using the global tracer provider.
func WithTracing(enabled bool) Option {
	return func(c *registryConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithJournal records lifecycle events to store. The registry does not
// close the store.
func WithJournal(store journal.Store) Option {
	return func(c *registryConfig) {
		c.journal = store
	}
}

// WithRegistryID sets the id used in logs, spans and journal entries.
// If not set, a UUID is generated.
func WithRegistryID(id string) Option {
	return func(c *registryConfig) {
		c.registryID = id
	}
}

// WithDestroyWaits makes Destroy wait for a running callback to return
// before releasing its slot. The thread is abandoned first: a parked thread
// wakes at once, and a running callback gets ErrAbandoned from its next
// Checkpoint even if it was suspended.
func WithDestroyWaits(enabled bool) Option {
	return func(c *registryConfig) {
		c.destroyWaits = enabled
	}
}
