package threadkit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Counting(t *testing.T) {
	g := newGate(1)

	prev, err := g.suspend()
	require.NoError(t, err)
	assert.Equal(t, 1, prev)

	prev, err = g.resume()
	require.NoError(t, err)
	assert.Equal(t, 2, prev)

	prev, err = g.resume()
	require.NoError(t, err)
	assert.Equal(t, 1, prev)

	// Resuming a running thread is a no-op that reports zero.
	prev, err = g.resume()
	require.NoError(t, err)
	assert.Equal(t, 0, prev)
	assert.Equal(t, 0, g.suspendCount())
}

func TestGate_PassBlocksUntilZero(t *testing.T) {
	g := newGate(2)
	passed := make(chan error, 1)
	parks := make(chan bool, 2)

	go func() {
		passed <- g.pass(func(parked bool) { parks <- parked })
	}()

	assert.True(t, <-parks)
	_, err := g.resume()
	require.NoError(t, err)
	select {
	case <-passed:
		t.Fatal("pass returned with count 1")
	case <-time.After(20 * time.Millisecond):
	}

	_, err = g.resume()
	require.NoError(t, err)
	select {
	case err := <-passed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pass did not return after count reached zero")
	}
	assert.False(t, <-parks)
}

func TestGate_PassWithoutWaitSkipsPark(t *testing.T) {
	g := newGate(0)
	called := false
	require.NoError(t, g.pass(func(bool) { called = true }))
	assert.False(t, called)
}

func TestGate_Abandon(t *testing.T) {
	g := newGate(1)
	passed := make(chan error, 1)
	go func() { passed <- g.pass(nil) }()

	g.abandon()
	select {
	case err := <-passed:
		assert.ErrorIs(t, err, ErrAbandoned)
	case <-time.After(time.Second):
		t.Fatal("abandon did not release waiter")
	}

	prev, err := g.suspend()
	assert.Equal(t, -1, prev)
	assert.ErrorIs(t, err, ErrThreadExited)
}

func TestGate_Exit(t *testing.T) {
	g := newGate(0)
	g.exit()

	prev, err := g.resume()
	assert.Equal(t, -1, prev)
	assert.ErrorIs(t, err, ErrThreadExited)
}
