package threadkit

import (
	"sync"
	"sync/atomic"
)

// Slot is the control block of one thread.
//
// A slot's index never changes. Its target and result cell are set by
// Table.Allocate; the native thread is attached by the registry before the
// slot becomes visible to lookups.
type Slot struct {
	index  uint32
	target Target
	result *Cell
	thread *nativeThread
}

// Index returns the 0-based slot index.
func (s *Slot) Index() uint32 { return s.index }

// Handle returns the external handle for the slot.
func (s *Slot) Handle() Handle { return HandleFor(s.index) }

// Target returns the callback the slot runs.
func (s *Slot) Target() Target { return s.target }

// Result returns the slot's result cell.
func (s *Slot) Result() *Cell { return s.result }

// release drops the slot's thread and result storage. A thread still parked
// at its gate is woken with ErrAbandoned; a thread already running keeps its
// own references and finishes on its own.
func (s *Slot) release() {
	if s.thread != nil {
		s.thread.gate.abandon()
	}
	s.result = nil
}

// nativeThread is the slot's view of its OS thread.
type nativeThread struct {
	// tid is written by the launcher before started is closed.
	tid  int
	gate *gate
	done chan struct{}

	state atomic.Int32

	mu    sync.Mutex
	fault error
}

func newNativeThread() *nativeThread {
	return &nativeThread{
		gate: newGate(1),
		done: make(chan struct{}),
	}
}

func (t *nativeThread) State() State {
	return State(t.state.Load())
}

func (t *nativeThread) setState(s State) {
	t.state.Store(int32(s))
}

func (t *nativeThread) finish(s State, fault error) {
	t.mu.Lock()
	t.fault = fault
	t.mu.Unlock()
	t.setState(s)
}

func (t *nativeThread) Fault() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fault
}

// exited reports whether the thread's goroutine has returned.
func (t *nativeThread) exited() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
