package wasmengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
	"github.com/randalmurphal/threadkit/pkg/threadkit/wasmengine"
)

// guestModule imports threadkit.checkpoint and exports:
//
//	Worker(i32) i32       index*10 + 7
//	Fault(i32) i32        unreachable
//	Checkpointed(i32) i32 checkpoint() ? -1 : index+1
//	NoArgs() i32          5
var guestModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type
	0x01, 0x0a, 0x02,
	0x60, 0x01, 0x7f, 0x01, 0x7f,
	0x60, 0x00, 0x01, 0x7f,
	// import
	0x02, 0x18, 0x01,
	0x09, 't', 'h', 'r', 'e', 'a', 'd', 'k', 'i', 't',
	0x0a, 'c', 'h', 'e', 'c', 'k', 'p', 'o', 'i', 'n', 't',
	0x00, 0x01,
	// function
	0x03, 0x05, 0x04, 0x00, 0x00, 0x00, 0x01,
	// export
	0x07, 0x2a, 0x04,
	0x06, 'W', 'o', 'r', 'k', 'e', 'r', 0x00, 0x01,
	0x05, 'F', 'a', 'u', 'l', 't', 0x00, 0x02,
	0x0c, 'C', 'h', 'e', 'c', 'k', 'p', 'o', 'i', 'n', 't', 'e', 'd', 0x00, 0x03,
	0x06, 'N', 'o', 'A', 'r', 'g', 's', 0x00, 0x04,
	// code
	0x0a, 0x25, 0x04,
	0x0a, 0x00, 0x20, 0x00, 0x41, 0x0a, 0x6c, 0x41, 0x07, 0x6a, 0x0b,
	0x03, 0x00, 0x00, 0x0b,
	0x0f, 0x00, 0x10, 0x00, 0x04, 0x7f, 0x41, 0x7f, 0x05, 0x20, 0x00, 0x41, 0x01, 0x6a, 0x0b, 0x0b,
	0x04, 0x00, 0x41, 0x05, 0x0b,
}

func newEngine(t *testing.T, opts ...wasmengine.Option) *wasmengine.Engine {
	t.Helper()
	ctx := context.Background()
	e, err := wasmengine.New(ctx, guestModule, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close(ctx) })
	return e
}

// runThread creates a thread on target, resumes it and waits for it.
func runThread(t *testing.T, reg *threadkit.Registry, target string) threadkit.Handle {
	t.Helper()
	ctx := context.Background()
	h, err := reg.Create(ctx, target)
	require.NoError(t, err)
	_, err = reg.Resume(h)
	require.NoError(t, err)
	status, err := reg.Wait(ctx, h, threadkit.Infinite)
	require.NoError(t, err)
	require.Equal(t, threadkit.WaitSignaled, status)
	return h
}

func TestNew_InvalidModule(t *testing.T) {
	_, err := wasmengine.New(context.Background(), []byte("not wasm"))
	assert.Error(t, err)
}

func TestEngine_Resolve(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	target, err := e.Resolve(ctx, "Worker")
	require.NoError(t, err)
	assert.Equal(t, "Worker", target.Name())

	_, err = e.Resolve(ctx, "Missing")
	assert.ErrorIs(t, err, threadkit.ErrResolution)

	_, err = e.Resolve(ctx, "NoArgs")
	assert.ErrorIs(t, err, threadkit.ErrResolution)
	assert.ErrorIs(t, err, wasmengine.ErrSignature)
}

func TestEngine_InvokeDirect(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	target, err := e.Resolve(ctx, "Worker")
	require.NoError(t, err)

	v, err := e.Invoke(ctx, target, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(37), v)

	// Checkpoint outside a registry thread never stops the guest.
	target, err = e.Resolve(ctx, "Checkpointed")
	require.NoError(t, err)
	v, err = e.Invoke(ctx, target, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
}

func TestEngine_RegistryThreads(t *testing.T) {
	reg, err := threadkit.New(newEngine(t))
	require.NoError(t, err)
	defer reg.Close()

	first := runThread(t, reg, "Worker")
	second := runThread(t, reg, "Checkpointed")

	v, ok, err := reg.Result(first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	v, ok, err = reg.Result(second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v, "second slot has index 1")
}

func TestEngine_TrapIsReported(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var handled *threadkit.FaultError
	e := newEngine(t,
		wasmengine.WithLogger(zap.New(core)),
		wasmengine.WithFaultHandler(func(f *threadkit.FaultError) { handled = f }),
	)

	reg, err := threadkit.New(e)
	require.NoError(t, err)
	defer reg.Close()

	h := runThread(t, reg, "Fault")

	info, err := reg.Info(h)
	require.NoError(t, err)
	assert.Equal(t, threadkit.StateFaulted, info.State)
	assert.False(t, info.HasResult)

	faults := e.Faults()
	require.Len(t, faults, 1)
	assert.Equal(t, h, faults[0].Handle)
	assert.Equal(t, "Fault", faults[0].Target)
	assert.Same(t, faults[0], handled)

	entries := logs.FilterMessage("wasm callback trapped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Fault", entries[0].ContextMap()["export"])
}

func TestEngine_FaultHistory(t *testing.T) {
	e := newEngine(t, wasmengine.WithFaultHistory(2))
	for i := 1; i <= 3; i++ {
		e.ReportFault(nil, &threadkit.FaultError{Handle: threadkit.Handle(i), Target: "Fault"})
	}

	faults := e.Faults()
	require.Len(t, faults, 2)
	assert.Equal(t, threadkit.Handle(2), faults[0].Handle)
	assert.Equal(t, threadkit.Handle(3), faults[1].Handle)
}
