package threadkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionError(t *testing.T) {
	inner := errors.New("unknown public")
	err := &ResolutionError{Name: "Worker", Err: inner}

	assert.Equal(t, `resolve callback "Worker": unknown public`, err.Error())
	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, inner)
}

func TestExhaustedError(t *testing.T) {
	err := &ExhaustedError{Op: "grow", Capacity: 16}
	assert.Contains(t, err.Error(), "grow at capacity 16")
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestFaultError(t *testing.T) {
	inner := &PanicError{Handle: 3, Value: "bad"}
	err := &FaultError{Handle: 3, Target: "Worker", Err: inner}

	assert.Equal(t, "thread 3 (Worker): thread 3 panicked: bad", err.Error())
	assert.ErrorIs(t, err, ErrCallbackFault)

	var p *PanicError
	assert.ErrorAs(t, err, &p)
}

func TestHandle(t *testing.T) {
	_, ok := NoThread.Index()
	assert.False(t, ok)

	idx, ok := Handle(5).Index()
	assert.True(t, ok)
	assert.Equal(t, uint32(4), idx)
	assert.Equal(t, Handle(5), HandleFor(4))

	assert.Equal(t, "none", NoThread.String())
	assert.Equal(t, "#5", Handle(5).String())
}

func TestWaitStatusAndState(t *testing.T) {
	assert.Equal(t, "signaled", WaitSignaled.String())
	assert.Equal(t, "timeout", WaitTimeout.String())
	assert.Equal(t, "failed", WaitFailed.String())
	assert.Equal(t, uint32(0x102), uint32(WaitTimeout))

	assert.True(t, StateExited.Terminal())
	assert.True(t, StateAbandoned.Terminal())
	assert.False(t, StateSuspended.Terminal())
	assert.Equal(t, "faulted", StateFaulted.String())
}
