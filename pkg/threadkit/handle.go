package threadkit

import (
	"fmt"
	"time"
)

// Handle is the caller-visible, 1-based name of a thread.
// The zero value is NoThread.
type Handle uint32

// NoThread is never issued by Create; it denotes "no thread" or a failed call.
const NoThread Handle = 0

// HandleFor converts a 0-based slot index to its external handle.
func HandleFor(index uint32) Handle {
	return Handle(index + 1)
}

// Index returns the 0-based slot index named by h.
// ok is false for NoThread.
func (h Handle) Index() (index uint32, ok bool) {
	if h == NoThread {
		return 0, false
	}
	return uint32(h) - 1, true
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	if h == NoThread {
		return "none"
	}
	return fmt.Sprintf("#%d", uint32(h))
}

// WaitStatus mirrors the native wait completion codes.
type WaitStatus uint32

// Wait completion codes.
//
// WaitSignaled is zero, the same value an invalid handle yields; Wait
// distinguishes the two by also returning ErrInvalidHandle.
const (
	WaitSignaled WaitStatus = 0x000
	WaitTimeout  WaitStatus = 0x102
	WaitFailed   WaitStatus = 0xFFFFFFFF
)

// String returns the status name.
func (s WaitStatus) String() string {
	switch s {
	case WaitSignaled:
		return "signaled"
	case WaitTimeout:
		return "timeout"
	case WaitFailed:
		return "failed"
	default:
		return fmt.Sprintf("wait_status(%#x)", uint32(s))
	}
}

// Infinite makes Wait block until the thread terminates.
const Infinite time.Duration = -1

// State is the lifecycle state of a thread.
type State int32

// Thread lifecycle states.
const (
	// StateSuspended: created, or parked at a checkpoint, and not running.
	StateSuspended State = iota
	// StateRunning: the callback is executing.
	StateRunning
	// StateExited: the callback returned and its result is stored.
	StateExited
	// StateFaulted: the callback raised a fault or panicked.
	StateFaulted
	// StateAbandoned: the slot was released before the callback ever ran.
	StateAbandoned
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFaulted:
		return "faulted"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether the thread will not run any more code.
func (s State) Terminal() bool {
	return s == StateExited || s == StateFaulted || s == StateAbandoned
}
