package threadkit

import "context"

// Target is an opaque reference to the function a thread runs.
// Engines produce targets in Resolve and consume them in Invoke.
type Target interface {
	// Name returns the name the target was resolved from.
	Name() string
}

// Engine is the collaborator that owns callbacks: it resolves names to
// targets, runs them, and receives faults raised while running them.
//
// Implementations must allow Invoke to be called from several threads at
// once, each with its own target invocation.
type Engine interface {
	// Resolve returns the target registered under name, or an error
	// (typically wrapping ErrResolution) if there is none. The registry
	// calls it exactly once per Create.
	Resolve(ctx context.Context, name string) (Target, error)

	// Invoke runs target on the calling OS thread. index is the thread's own
	// 0-based slot index so the callback can identify itself. ctx carries the
	// thread's ThreadContext.
	Invoke(ctx context.Context, target Target, index uint32) (int64, error)

	// ReportFault delivers a fault raised by Invoke to the engine's own error
	// channel. The thread's creator is not notified synchronously.
	ReportFault(target Target, err *FaultError)
}
