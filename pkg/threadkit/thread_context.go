package threadkit

import (
	"context"
	"log/slog"
)

// ThreadContext is owned by a running thread and handed to its callback
// through the context passed to Engine.Invoke.
type ThreadContext struct {
	index  uint32
	target Target
	result *Cell
	thread *nativeThread
	logger *slog.Logger
}

func newThreadContext(slot *Slot, logger *slog.Logger) *ThreadContext {
	return &ThreadContext{
		index:  slot.index,
		target: slot.target,
		result: slot.result,
		thread: slot.thread,
		logger: logger,
	}
}

// Index returns the thread's 0-based slot index.
func (tc *ThreadContext) Index() uint32 { return tc.index }

// Handle returns the thread's external handle.
func (tc *ThreadContext) Handle() Handle { return HandleFor(tc.index) }

// Target returns the callback being run.
func (tc *ThreadContext) Target() Target { return tc.target }

// Logger returns a logger enriched with the thread's handle and target.
func (tc *ThreadContext) Logger() *slog.Logger { return tc.logger }

// OSThreadID returns the id of the OS thread the callback runs on,
// or 0 where the platform does not expose one.
func (tc *ThreadContext) OSThreadID() int { return tc.thread.tid }

// Checkpoint parks the calling thread while its suspend count is non-zero.
// Callbacks call it at points where they are safe to pause. It returns
// ErrAbandoned if the thread's slot was destroyed while it was parked, or
// immediately if the slot is already gone; the callback should stop then.
func (tc *ThreadContext) Checkpoint() error {
	return tc.thread.gate.pass(func(parked bool) {
		if parked {
			tc.thread.setState(StateSuspended)
		} else {
			tc.thread.setState(StateRunning)
		}
	})
}

type threadContextKey struct{}

func withThreadContext(ctx context.Context, tc *ThreadContext) context.Context {
	return context.WithValue(ctx, threadContextKey{}, tc)
}

// FromContext returns the ThreadContext carried by ctx, if any.
func FromContext(ctx context.Context) (*ThreadContext, bool) {
	tc, ok := ctx.Value(threadContextKey{}).(*ThreadContext)
	return tc, ok && tc != nil
}

// Checkpoint calls Checkpoint on the thread carried by ctx.
// Outside a registry thread it does nothing.
func Checkpoint(ctx context.Context) error {
	tc, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return tc.Checkpoint()
}
