package threadkit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/threadkit/pkg/threadkit/journal"
	"github.com/randalmurphal/threadkit/pkg/threadkit/observability"
)

// Registry creates threads on demand and controls them through handles.
//
// All methods are safe for concurrent use: table mutation and lookups are
// guarded by a single RWMutex. The OS thread behind a handle is never exposed.
type Registry struct {
	mu     sync.RWMutex
	table  *Table
	closed bool

	// jmu serializes journal appends. Resume and Suspend hold it across the
	// gate change so a released thread cannot journal ahead of them.
	jmu sync.Mutex

	engine Engine
	cfg    registryConfig
	id     string

	// ctx is the parent of every thread's context; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a registry with its first table block allocated.
//
// Example:
//
//	reg, err := threadkit.New(engine, threadkit.WithBlockSize(16))
//	if err != nil {
//	    return err
//	}
//	defer reg.Close()
func New(engine Engine, opts ...Option) (*Registry, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}

	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	id := cfg.registryID
	if id == "" {
		id = uuid.New().String()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		table:  NewTable(cfg.blockSize, cfg.maxThreads),
		engine: engine,
		cfg:    cfg,
		id:     id,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// ID returns the registry id.
func (r *Registry) ID() string { return r.id }

// Create resolves name through the engine and starts a new thread for it in
// the suspended state. The thread runs once Resume brings its suspend count
// to zero.
//
// On failure it returns NoThread and an error: a *ResolutionError if the
// name is unknown, or an *ExhaustedError if the table cannot take another
// thread. A failed Create leaves nothing visible to lookups.
func (r *Registry) Create(ctx context.Context, name string) (h Handle, err error) {
	ctx, span := r.cfg.spans.StartCreateSpan(ctx, r.id, name)
	defer func() {
		r.cfg.spans.EndSpanWithError(span, err)
		r.cfg.metrics.RecordCreate(ctx, name, err)
		if err != nil {
			observability.LogCreateError(r.cfg.logger, name, err)
		}
	}()

	target, err := r.engine.Resolve(ctx, name)
	if err != nil {
		return NoThread, &ResolutionError{Name: name, Err: err}
	}
	if target == nil {
		return NoThread, &ResolutionError{Name: name, Err: ErrResolution}
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return NoThread, ErrRegistryClosed
	}

	slot, grew, err := r.table.Allocate(target)
	if err != nil {
		r.mu.Unlock()
		return NoThread, err
	}
	if grew {
		observability.LogTableGrow(r.cfg.logger, r.table.Cap(), r.table.Blocks())
		r.cfg.metrics.RecordGrow(ctx, r.table.Cap())
	}

	slot.thread = newNativeThread()
	tc := newThreadContext(slot, observability.EnrichLogger(r.cfg.logger, r.id, uint32(slot.Handle()), target.Name()))

	started := make(chan struct{})
	go r.launch(tc, started)
	<-started
	r.mu.Unlock()

	h = slot.Handle()
	observability.LogThreadCreated(r.cfg.logger, uint32(h), target.Name(), tc.thread.tid)
	r.record(ctx, journal.Event{Handle: uint32(h), Kind: journal.KindCreated, Target: target.Name()})
	return h, nil
}

// lookup returns the slot for h. The caller must hold r.mu.
func (r *Registry) lookup(h Handle) (*Slot, bool) {
	index, ok := h.Index()
	if !ok || r.closed {
		return nil, false
	}
	return r.table.Lookup(index)
}

// Destroy releases the thread behind h and reports whether it existed.
// An invalid or already destroyed handle is a no-op that returns false.
//
// A thread that never started, or is parked at a checkpoint, is abandoned:
// it exits without running any more callback code. By default a running
// callback is left to finish on its own, detached from the handle; with
// WithDestroyWaits, Destroy first abandons it and waits for it to return,
// so its next Checkpoint fails with ErrAbandoned. Either way callers
// should Wait for completion before Destroy if they need the result.
func (r *Registry) Destroy(h Handle) bool {
	if r.cfg.destroyWaits {
		r.drain(h)
	}

	r.mu.Lock()
	slot, ok := r.lookup(h)
	if !ok {
		r.mu.Unlock()
		return false
	}
	th := slot.thread
	target := slot.target.Name()
	r.table.Free(slot.index)
	r.mu.Unlock()

	observability.LogThreadDestroyed(r.cfg.logger, uint32(h), th.State() == StateRunning)
	r.cfg.metrics.RecordDestroy(r.ctx, target)
	r.record(r.ctx, journal.Event{Handle: uint32(h), Kind: journal.KindDestroyed, Target: target})
	return true
}

// drain abandons the thread behind h and waits for it to return. A parked
// thread wakes with ErrAbandoned; a running callback gets ErrAbandoned from
// its next Checkpoint, so a Suspend racing the drain cannot park it.
func (r *Registry) drain(h Handle) {
	r.mu.RLock()
	slot, ok := r.lookup(h)
	r.mu.RUnlock()
	if !ok {
		return
	}
	slot.thread.gate.abandon()
	<-slot.thread.done
}

// Resume decrements the suspend count of the thread behind h and returns
// the previous count. The thread runs when the count reaches zero; resuming
// a thread whose count is already zero returns 0 and changes nothing.
//
// An invalid handle returns 0 and ErrInvalidHandle. A thread that has
// already exited returns -1 and ErrThreadExited.
func (r *Registry) Resume(h Handle) (int, error) {
	return r.control(h, journal.KindResumed, (*gate).resume)
}

// Suspend increments the suspend count of the thread behind h and returns
// the previous count.
//
// A thread that has not started stays parked. A running callback is held at
// its next Checkpoint; code between checkpoints is never interrupted.
//
// An invalid handle returns 0 and ErrInvalidHandle. A thread that has
// already exited returns -1 and ErrThreadExited.
func (r *Registry) Suspend(h Handle) (int, error) {
	return r.control(h, journal.KindSuspended, (*gate).suspend)
}

// control applies op to the gate of the thread behind h and journals the
// previous count. The journal write happens outside the gate lock.
func (r *Registry) control(h Handle, kind journal.Kind, op func(*gate) (int, error)) (int, error) {
	th, target, err := r.threadFor(h)
	if err != nil {
		return 0, err
	}
	if r.cfg.journal == nil {
		return op(th.gate)
	}

	r.jmu.Lock()
	defer r.jmu.Unlock()
	prev, err := op(th.gate)
	if err == nil {
		r.appendLocked(r.ctx, journal.Event{Handle: uint32(h), Kind: kind, Target: target, Result: int64(prev)})
	}
	return prev, err
}

func (r *Registry) threadFor(h Handle) (*nativeThread, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.lookup(h)
	if !ok {
		return nil, "", ErrInvalidHandle
	}
	return slot.thread, slot.target.Name(), nil
}

// Wait blocks until the thread behind h terminates or timeout elapses.
// Use Infinite to wait without a timeout; a timeout of zero only polls.
//
// It returns WaitSignaled once the thread has terminated and WaitTimeout if
// it is still running when the timeout elapses. If ctx ends first it returns
// WaitFailed and the context error. An invalid handle returns 0 (the same
// value as WaitSignaled) together with ErrInvalidHandle.
func (r *Registry) Wait(ctx context.Context, h Handle, timeout time.Duration) (WaitStatus, error) {
	th, _, err := r.threadFor(h)
	if err != nil {
		return 0, err
	}

	select {
	case <-th.done:
		return WaitSignaled, nil
	default:
	}
	if timeout == 0 {
		return WaitTimeout, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-th.done:
		return WaitSignaled, nil
	case <-expired:
		return WaitTimeout, nil
	case <-ctx.Done():
		return WaitFailed, ctx.Err()
	}
}

// Result returns the value the callback behind h stored, and whether it has
// stored one yet.
func (r *Registry) Result(h Handle) (int64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.lookup(h)
	if !ok {
		return 0, false, ErrInvalidHandle
	}
	v, set := slot.result.Load()
	return v, set, nil
}

// ThreadInfo is a snapshot of one thread.
type ThreadInfo struct {
	Handle       Handle
	Target       string
	State        State
	SuspendCount int
	OSThreadID   int
	Result       int64
	HasResult    bool
	// Fault is the *FaultError for a faulted thread.
	Fault error
}

// Info returns a snapshot of the thread behind h.
func (r *Registry) Info(h Handle) (ThreadInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.lookup(h)
	if !ok {
		return ThreadInfo{}, ErrInvalidHandle
	}
	return slotInfo(slot), nil
}

func slotInfo(slot *Slot) ThreadInfo {
	th := slot.thread
	v, set := slot.result.Load()
	return ThreadInfo{
		Handle:       slot.Handle(),
		Target:       slot.target.Name(),
		State:        th.State(),
		SuspendCount: th.gate.suspendCount(),
		OSThreadID:   th.tid,
		Result:       v,
		HasResult:    set,
		Fault:        th.Fault(),
	}
}

// Handles returns the live handles in creation order.
func (r *Registry) Handles() []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil
	}
	slots := r.table.Occupied()
	out := make([]Handle, len(slots))
	for i, s := range slots {
		out[i] = s.Handle()
	}
	return out
}

// TableStats describes the slot table.
type TableStats struct {
	Len    int
	Cap    int
	Blocks int
	Grows  int
}

// Stats returns the current table statistics.
func (r *Registry) Stats() TableStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return TableStats{
		Len:    r.table.Len(),
		Cap:    r.table.Cap(),
		Blocks: r.table.Blocks(),
		Grows:  r.table.Grows(),
	}
}

// Close releases every occupied slot and the table. Threads that have not
// started are abandoned; running callbacks see their context cancelled and
// ErrAbandoned from their next Checkpoint. Close does not wait for them.
// It is safe to call more than once.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cancel()
	released := r.table.Occupied()
	r.table.Teardown()
	r.mu.Unlock()

	ctx := context.WithoutCancel(r.ctx)
	for _, slot := range released {
		h := slot.Handle()
		target := slot.target.Name()
		observability.LogThreadDestroyed(r.cfg.logger, uint32(h), slot.thread.State() == StateRunning)
		r.cfg.metrics.RecordDestroy(ctx, target)
		r.record(ctx, journal.Event{Handle: uint32(h), Kind: journal.KindDestroyed, Target: target})
	}
	return nil
}

func (r *Registry) record(ctx context.Context, ev journal.Event) {
	if r.cfg.journal == nil {
		return
	}
	r.jmu.Lock()
	defer r.jmu.Unlock()
	r.appendLocked(ctx, ev)
}

// appendLocked writes ev to the journal. The caller must hold r.jmu.
func (r *Registry) appendLocked(ctx context.Context, ev journal.Event) {
	ev.RegistryID = r.id
	// The journal must still see events recorded after Close cancelled r.ctx.
	if err := r.cfg.journal.Append(context.WithoutCancel(ctx), ev); err != nil && !errors.Is(err, journal.ErrStoreClosed) {
		observability.LogJournalError(r.cfg.logger, ev.Handle, string(ev.Kind), err)
	}
}

// Logger returns the registry's logger.
func (r *Registry) Logger() *slog.Logger { return r.cfg.logger }
