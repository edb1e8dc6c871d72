package threadkit

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/randalmurphal/threadkit/pkg/threadkit/journal"
	"github.com/randalmurphal/threadkit/pkg/threadkit/observability"
)

// launch is the entry point of every thread. It pins itself to an OS thread,
// reports the thread id through started, and parks until the suspend count
// first reaches zero. Only then does it run the callback.
//
// The OS thread is never unlocked, so it terminates together with the
// goroutine instead of returning to the scheduler's pool.
func (r *Registry) launch(tc *ThreadContext, started chan<- struct{}) {
	runtime.LockOSThread()

	th := tc.thread
	th.tid = currentThreadID()
	close(started)
	defer close(th.done)

	if err := th.gate.pass(nil); err != nil {
		th.finish(StateAbandoned, nil)
		th.gate.exit()
		observability.LogThreadAbandoned(tc.logger)
		r.record(r.ctx, journal.Event{Handle: uint32(tc.Handle()), Kind: journal.KindAbandoned, Target: tc.target.Name()})
		return
	}

	th.setState(StateRunning)
	r.run(tc)
}

// run invokes the callback and stores its result. Faults, including panics,
// go to the engine's ReportFault and never leave this thread.
func (r *Registry) run(tc *ThreadContext) {
	th := tc.thread
	name := tc.target.Name()
	ctx := withThreadContext(r.ctx, tc)
	ctx, span := r.cfg.spans.StartRunSpan(ctx, r.id, uint32(tc.Handle()), name)

	elapsed := observability.TimedOperation()
	value, err := r.invoke(ctx, tc)
	durationMs := elapsed()

	r.cfg.spans.EndSpanWithError(span, err)
	r.cfg.metrics.RecordRun(ctx, name, durationMs, err)

	if err != nil {
		fault := &FaultError{Handle: tc.Handle(), Target: name, Err: err}
		th.finish(StateFaulted, fault)
		th.gate.exit()
		observability.LogThreadFault(tc.logger, fault, durationMs)
		r.record(ctx, journal.Event{Handle: uint32(tc.Handle()), Kind: journal.KindFaulted, Target: name, Error: err.Error()})
		r.reportFault(tc, fault)
		return
	}

	tc.result.Store(value)
	th.finish(StateExited, nil)
	th.gate.exit()
	observability.LogThreadComplete(tc.logger, value, durationMs)
	r.record(ctx, journal.Event{Handle: uint32(tc.Handle()), Kind: journal.KindCompleted, Target: name, Result: value})
}

func (r *Registry) invoke(ctx context.Context, tc *ThreadContext) (value int64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = 0
			err = &PanicError{
				Handle: tc.Handle(),
				Value:  rec,
				Stack:  string(debug.Stack()),
			}
		}
	}()
	return r.engine.Invoke(ctx, tc.target, tc.index)
}

// reportFault hands fault to the engine. A panicking engine is logged and
// otherwise ignored so it cannot take the process down from a worker thread.
func (r *Registry) reportFault(tc *ThreadContext, fault *FaultError) {
	defer func() {
		if rec := recover(); rec != nil {
			tc.logger.Error("engine fault reporting panicked",
				"panic", fmt.Sprint(rec))
		}
	}()
	r.engine.ReportFault(tc.target, fault)
}
