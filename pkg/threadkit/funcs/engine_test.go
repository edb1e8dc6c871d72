package funcs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
	"github.com/randalmurphal/threadkit/pkg/threadkit/funcs"
)

func constant(v int64) funcs.Func {
	return func(context.Context, uint32) (int64, error) { return v, nil }
}

func TestEngine_Register(t *testing.T) {
	e := funcs.New()

	require.NoError(t, e.Register("Worker", constant(1)))

	err := e.Register("Worker", constant(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, e.Register("", constant(1)))
	assert.Error(t, e.Register("Nil", nil))

	assert.PanicsWithError(t, `callback "Worker" already registered`, func() {
		e.MustRegister("Worker", constant(3))
	})
}

func TestEngine_Names(t *testing.T) {
	e := funcs.New().
		MustRegister("b", constant(1)).
		MustRegister("a", constant(1)).
		MustRegister("c", constant(1))
	assert.Equal(t, []string{"a", "b", "c"}, e.Names())

	e.Unregister("b")
	assert.Equal(t, []string{"a", "c"}, e.Names())
}

func TestEngine_ResolveAndInvoke(t *testing.T) {
	ctx := context.Background()
	e := funcs.New().MustRegister("Double", func(_ context.Context, index uint32) (int64, error) {
		return int64(index) * 2, nil
	})

	target, err := e.Resolve(ctx, "Double")
	require.NoError(t, err)
	assert.Equal(t, "Double", target.Name())

	v, err := e.Invoke(ctx, target, 21)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	// Targets survive unregistration.
	e.Unregister("Double")
	v, err = e.Invoke(ctx, target, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = e.Resolve(ctx, "Double")
	assert.ErrorIs(t, err, threadkit.ErrResolution)
}

type otherTarget struct{}

func (otherTarget) Name() string { return "other" }

func TestEngine_InvokeForeignTarget(t *testing.T) {
	_, err := funcs.New().Invoke(context.Background(), otherTarget{}, 0)
	assert.Error(t, err)
}

func TestEngine_ReportFault(t *testing.T) {
	var handled []*threadkit.FaultError
	var buf bytes.Buffer
	e := funcs.New(
		funcs.WithFaultBuffer(1),
		funcs.WithFaultHandler(func(f *threadkit.FaultError) { handled = append(handled, f) }),
		funcs.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	first := &threadkit.FaultError{Handle: 1, Target: "W", Err: errors.New("one")}
	second := &threadkit.FaultError{Handle: 2, Target: "W", Err: errors.New("two")}
	e.ReportFault(nil, first)
	e.ReportFault(nil, second)

	assert.Equal(t, []*threadkit.FaultError{first, second}, handled)
	assert.Same(t, first, <-e.Faults())
	assert.Contains(t, buf.String(), "fault dropped")
}

func TestEngine_WithRegistry(t *testing.T) {
	ctx := context.Background()
	e := funcs.New().MustRegister("Worker", constant(11))
	reg, err := threadkit.New(e)
	require.NoError(t, err)
	defer reg.Close()

	h, err := reg.Create(ctx, "Worker")
	require.NoError(t, err)
	_, err = reg.Resume(h)
	require.NoError(t, err)
	_, err = reg.Wait(ctx, h, threadkit.Infinite)
	require.NoError(t, err)

	v, ok, err := reg.Result(h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(11), v)
}
