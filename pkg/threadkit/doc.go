/*
Package threadkit provides a handle-indexed thread registry.

# Overview

A Registry creates OS-level worker threads on demand, gives each a small
integer Handle, and lets callers suspend, resume, wait on and destroy a
thread only through that handle. What a thread runs is decided by an Engine,
the collaborator that resolves callback names and invokes them; the registry
treats the resolved Target as opaque.

Threads are created suspended. Create records the thread in the slot table
before any callback code can run, and the thread starts when Resume brings
its suspend count to zero:

	reg, err := threadkit.New(engine)
	if err != nil {
	    log.Fatal(err)
	}
	defer reg.Close()

	h, err := reg.Create(ctx, "Worker") // h == 1
	if err != nil {
	    log.Fatal(err)
	}
	reg.Resume(h)
	reg.Wait(ctx, h, threadkit.Infinite)
	v, _, _ := reg.Result(h)
	reg.Destroy(h)

# Handles

Handles are 1-based and issued in creation order; NoThread (0) is never
issued. Handles are not recycled: after Destroy the slot stays empty and
every later lookup through that handle fails with ErrInvalidHandle.

The slot table grows by a fixed block (DefaultBlockSize, or WithBlockSize)
whenever it is full. Growth never moves or renumbers existing slots.

# Suspension

Suspend counts follow native thread semantics: Suspend and Resume return the
previous count, and a thread runs only while the count is zero. Go cannot
stop a goroutine at an arbitrary instruction, so a running callback is held
at its next Checkpoint. A thread that has not started yet is held before its
first instruction.

# Faults

A callback that returns an error or panics does not crash the process. The
fault is wrapped in a *FaultError, handed to Engine.ReportFault, logged and
journaled. The thread's creator learns about it only through Info or the
engine's own channel, not through any registry return value.

# Destroy while running

Destroy releases a slot immediately. A thread that never started, or is
parked at a checkpoint, is abandoned and runs no more callback code. A
callback that is running keeps executing detached from its handle unless
the registry was built WithDestroyWaits, in which case Destroy abandons it
and waits for it to return; its next Checkpoint fails with ErrAbandoned.
Callers that need a result must Wait before Destroy.

Close releases every remaining slot the same way, and journals and counts
each one as destroyed.
*/
package threadkit
