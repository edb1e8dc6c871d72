// Package observability provides logging, metrics and tracing for threadkit
// registries.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Metrics and tracing have no-op implementations for when they are disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds thread context to a logger.
// Returns a new logger with registry_id, handle, and target fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "reg-123", 4, "Worker")
//	enriched.Info("doing work") // includes registry_id, handle, target
func EnrichLogger(logger *slog.Logger, registryID string, handle uint32, target string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("registry_id", registryID),
		slog.Uint64("handle", uint64(handle)),
		slog.String("target", target),
	)
}

// LogThreadCreated logs a successful create.
func LogThreadCreated(logger *slog.Logger, handle uint32, target string, osThreadID int) {
	if logger == nil {
		return
	}
	logger.Debug("thread created",
		slog.Uint64("handle", uint64(handle)),
		slog.String("target", target),
		slog.Int("os_thread_id", osThreadID),
	)
}

// LogCreateError logs a failed create.
func LogCreateError(logger *slog.Logger, target string, err error) {
	if logger == nil {
		return
	}
	logger.Error("thread create failed",
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// LogTableGrow logs a table growth event.
func LogTableGrow(logger *slog.Logger, capacity, blocks int) {
	if logger == nil {
		return
	}
	logger.Debug("thread table grew",
		slog.Int("capacity", capacity),
		slog.Int("blocks", blocks),
	)
}

// LogThreadComplete logs a callback that returned normally.
func LogThreadComplete(logger *slog.Logger, result int64, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("thread completed",
		slog.Int64("result", result),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogThreadFault logs a callback fault. The fault itself is delivered to
// the engine; this is only the registry's record of it.
func LogThreadFault(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Warn("thread faulted",
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogThreadAbandoned logs a thread released before it ever ran.
func LogThreadAbandoned(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Debug("thread abandoned before start")
}

// LogThreadDestroyed logs a destroy. running is true if the callback was
// still executing when the slot was released.
func LogThreadDestroyed(logger *slog.Logger, handle uint32, running bool) {
	if logger == nil {
		return
	}
	if running {
		logger.Warn("thread destroyed while running",
			slog.Uint64("handle", uint64(handle)),
		)
		return
	}
	logger.Debug("thread destroyed",
		slog.Uint64("handle", uint64(handle)),
	)
}

// LogJournalError logs a journal failure (non-fatal).
func LogJournalError(logger *slog.Logger, handle uint32, kind string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("journal append failed",
		slog.Uint64("handle", uint64(handle)),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
