package threadkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for thread creation.
var (
	// ErrResolution indicates the engine could not resolve a callback name.
	ErrResolution = errors.New("callback not found")

	// ErrResourceExhausted indicates the slot table could not grow or the
	// thread limit was reached.
	ErrResourceExhausted = errors.New("thread resources exhausted")

	// ErrNilEngine indicates New was called without an engine.
	ErrNilEngine = errors.New("engine cannot be nil")

	// ErrRegistryClosed indicates an operation on a closed registry.
	ErrRegistryClosed = errors.New("registry closed")
)

// Sentinel errors for operations on existing threads.
var (
	// ErrInvalidHandle indicates the handle does not name a live slot.
	// Callers are expected to treat it as routine.
	ErrInvalidHandle = errors.New("invalid thread handle")

	// ErrThreadExited indicates suspend or resume on a thread that already finished.
	ErrThreadExited = errors.New("thread has exited")

	// ErrAbandoned is returned from Checkpoint once the thread's slot was
	// destroyed or the registry closed.
	ErrAbandoned = errors.New("thread abandoned")

	// ErrCallbackFault indicates the callback raised a runtime fault.
	ErrCallbackFault = errors.New("callback fault")
)

// ResolutionError wraps a failed callback name lookup.
type ResolutionError struct {
	// Name is the callback name that was requested.
	Name string
	// Err is the engine's error.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve callback %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Is reports ErrResolution so callers can match on the sentinel even when
// the engine returned its own error type.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ExhaustedError provides context when the table cannot take another thread.
type ExhaustedError struct {
	// Op is the step that failed ("grow", "limit").
	Op string
	// Capacity is the table capacity at the time of failure.
	Capacity int
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s at capacity %d: %v", e.Op, e.Capacity, ErrResourceExhausted)
}

// Unwrap returns ErrResourceExhausted for errors.Is support.
func (e *ExhaustedError) Unwrap() error {
	return ErrResourceExhausted
}

// FaultError wraps a runtime fault raised by a callback.
type FaultError struct {
	// Handle is the thread that faulted.
	Handle Handle
	// Target is the callback name.
	Target string
	// Err is the fault reported by the engine, or a *PanicError.
	Err error
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return fmt.Sprintf("thread %d (%s): %v", e.Handle, e.Target, e.Err)
}

// Unwrap returns the underlying fault.
func (e *FaultError) Unwrap() error {
	return e.Err
}

// Is reports ErrCallbackFault.
func (e *FaultError) Is(target error) bool {
	return target == ErrCallbackFault
}

// PanicError captures a panic raised inside a callback.
// It includes the stack trace for debugging.
type PanicError struct {
	// Handle is the thread whose callback panicked.
	Handle Handle
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("thread %d panicked: %v", e.Handle, e.Value)
}
