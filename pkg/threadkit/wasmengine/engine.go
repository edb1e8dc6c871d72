package wasmengine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
)

// HostModule is the import module name of the host functions.
const HostModule = "threadkit"

// Engine resolves callbacks among the exports of one compiled module.
type Engine struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	logger   *zap.Logger
	onFault  func(*threadkit.FaultError)

	mu        sync.Mutex
	faults    []*threadkit.FaultError
	maxFaults int
}

// Compile-time interface check.
var _ threadkit.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the zap logger. Default: zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFaultHandler sets a function called for every trap, on the faulting
// thread.
func WithFaultHandler(fn func(*threadkit.FaultError)) Option {
	return func(e *Engine) {
		e.onFault = fn
	}
}

// WithFaultHistory sets how many recent faults Faults keeps. Default: 64.
func WithFaultHistory(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxFaults = n
		}
	}
}

// New compiles wasmBytes and registers the host module.
func New(ctx context.Context, wasmBytes []byte, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:    zap.NewNop(),
		maxFaults: 64,
	}
	for _, opt := range opts {
		opt(e)
	}

	// Guests are interrupted when the registry closes and cancels thread contexts.
	e.runtime = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	_, err := e.runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(checkpoint), nil, []api.ValueType{api.ValueTypeI32}).
		Export("checkpoint").
		Instantiate(ctx)
	if err != nil {
		e.runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}

	e.compiled, err = e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		e.runtime.Close(ctx)
		return nil, fmt.Errorf("compile module: %w", err)
	}

	e.logger.Debug("wasm module compiled",
		zap.Int("exports", len(e.compiled.ExportedFunctions())))
	return e, nil
}

// checkpoint is the guest's view of threadkit.Checkpoint.
func checkpoint(ctx context.Context, _ api.Module, stack []uint64) {
	if err := threadkit.Checkpoint(ctx); err != nil {
		stack[0] = api.EncodeU32(1)
		return
	}
	stack[0] = api.EncodeU32(0)
}

type target struct {
	name   string
	result api.ValueType
}

func (t *target) Name() string { return t.name }

// ErrSignature indicates an export exists but cannot be a thread callback.
var ErrSignature = errors.New("unsupported callback signature")

// Resolve implements threadkit.Engine.
func (e *Engine) Resolve(_ context.Context, name string) (threadkit.Target, error) {
	def, ok := e.compiled.ExportedFunctions()[name]
	if !ok {
		return nil, fmt.Errorf("%w: no export %q", threadkit.ErrResolution, name)
	}

	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != 1 || params[0] != api.ValueTypeI32 ||
		len(results) != 1 || (results[0] != api.ValueTypeI32 && results[0] != api.ValueTypeI64) {
		return nil, fmt.Errorf("%w: %w: %s", threadkit.ErrResolution, ErrSignature, describe(params, results))
	}
	return &target{name: name, result: results[0]}, nil
}

func describe(params, results []api.ValueType) string {
	names := func(ts []api.ValueType) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = api.ValueTypeName(t)
		}
		return out
	}
	return fmt.Sprintf("%v -> %v", names(params), names(results))
}

// Invoke implements threadkit.Engine.
func (e *Engine) Invoke(ctx context.Context, t threadkit.Target, index uint32) (int64, error) {
	wt, ok := t.(*target)
	if !ok {
		return 0, fmt.Errorf("foreign target %T", t)
	}

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled,
		wazero.NewModuleConfig().WithName("").WithStartFunctions())
	if err != nil {
		return 0, fmt.Errorf("instantiate: %w", err)
	}
	defer mod.Close(context.WithoutCancel(ctx))

	fn := mod.ExportedFunction(wt.name)
	if fn == nil {
		return 0, fmt.Errorf("export %q missing from instance", wt.name)
	}

	results, err := fn.Call(ctx, api.EncodeU32(index))
	if err != nil {
		return 0, err
	}
	if wt.result == api.ValueTypeI32 {
		return int64(api.DecodeI32(results[0])), nil
	}
	return int64(results[0]), nil
}

// ReportFault implements threadkit.Engine.
func (e *Engine) ReportFault(_ threadkit.Target, err *threadkit.FaultError) {
	e.logger.Warn("wasm callback trapped",
		zap.Uint32("handle", uint32(err.Handle)),
		zap.String("export", err.Target),
		zap.Error(err.Err))

	e.mu.Lock()
	if e.maxFaults > 0 {
		if len(e.faults) == e.maxFaults {
			e.faults = e.faults[1:]
		}
		e.faults = append(e.faults, err)
	}
	e.mu.Unlock()

	if e.onFault != nil {
		e.onFault(err)
	}
}

// Faults returns the most recent faults, oldest first.
func (e *Engine) Faults() []*threadkit.FaultError {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*threadkit.FaultError, len(e.faults))
	copy(out, e.faults)
	return out
}

// Close releases the wazero runtime and every module instance.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}
