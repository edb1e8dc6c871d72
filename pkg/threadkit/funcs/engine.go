// Package funcs provides a threadkit.Engine backed by plain Go functions
// registered by name.
package funcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
)

// Func is a thread callback. index is the thread's own 0-based slot index.
// Long-running callbacks should call threadkit.Checkpoint(ctx) where they
// can be paused, and stop when it returns an error.
type Func func(ctx context.Context, index uint32) (int64, error)

// Engine resolves names to registered Funcs.
type Engine struct {
	mu     sync.RWMutex
	funcs  map[string]Func
	faults chan *threadkit.FaultError

	onFault func(*threadkit.FaultError)
	logger  *slog.Logger
}

// Compile-time interface check.
var _ threadkit.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithFaultHandler sets a function called for every fault, on the faulting
// thread.
func WithFaultHandler(fn func(*threadkit.FaultError)) Option {
	return func(e *Engine) {
		e.onFault = fn
	}
}

// WithFaultBuffer sets the capacity of the Faults channel. Default: 16.
// Faults that do not fit are logged and dropped.
func WithFaultBuffer(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.faults = make(chan *threadkit.FaultError, n)
		}
	}
}

// WithLogger sets the logger used for dropped faults.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		funcs:  make(map[string]Func),
		faults: make(chan *threadkit.FaultError, 16),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register adds fn under name.
func (e *Engine) Register(name string, fn Func) error {
	if name == "" {
		return errors.New("callback name is required")
	}
	if fn == nil {
		return errors.New("callback is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.funcs[name]; exists {
		return fmt.Errorf("callback %q already registered", name)
	}
	e.funcs[name] = fn
	return nil
}

// MustRegister registers fn, panicking on error.
func (e *Engine) MustRegister(name string, fn Func) *Engine {
	if err := e.Register(name, fn); err != nil {
		panic(err)
	}
	return e
}

// Unregister removes name. Threads already created keep their target.
func (e *Engine) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.funcs, name)
}

// Names returns the registered names in sorted order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type target struct {
	name string
	fn   Func
}

func (t *target) Name() string { return t.name }

// Resolve implements threadkit.Engine.
func (e *Engine) Resolve(_ context.Context, name string) (threadkit.Target, error) {
	e.mu.RLock()
	fn, ok := e.funcs[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", threadkit.ErrResolution, name)
	}
	return &target{name: name, fn: fn}, nil
}

// Invoke implements threadkit.Engine.
func (e *Engine) Invoke(ctx context.Context, t threadkit.Target, index uint32) (int64, error) {
	ft, ok := t.(*target)
	if !ok {
		return 0, fmt.Errorf("foreign target %T", t)
	}
	return ft.fn(ctx, index)
}

// ReportFault implements threadkit.Engine.
func (e *Engine) ReportFault(_ threadkit.Target, err *threadkit.FaultError) {
	if e.onFault != nil {
		e.onFault(err)
	}
	select {
	case e.faults <- err:
	default:
		e.logger.Warn("fault dropped",
			slog.Uint64("handle", uint64(err.Handle)),
			slog.String("error", err.Error()))
	}
}

// Faults returns the channel faults are delivered on.
func (e *Engine) Faults() <-chan *threadkit.FaultError {
	return e.faults
}
