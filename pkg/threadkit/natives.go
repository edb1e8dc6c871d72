package threadkit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NativeFunc is a registry operation in the calling convention of a script
// host: integer parameters in, one integer out.
type NativeFunc func(ctx context.Context, params ...int64) (int64, error)

// NativeInfo names one native.
type NativeInfo struct {
	Name string
	Func NativeFunc
}

// NameDecoder turns a create_thread parameter into a callback name, for
// example by reading a string out of the script's memory.
type NameDecoder func(ctx context.Context, param int64) (string, error)

// ErrNativeArgs indicates a native was called with too few parameters.
var ErrNativeArgs = errors.New("missing native parameters")

// Natives returns the registry operations under their script names:
//
//	create_thread(name) -> handle, 0 on failure
//	destroy_thread(handle) -> 1 on success, 0 otherwise
//	resume_thread(handle) -> previous suspend count
//	suspend_thread(handle) -> previous suspend count
//	wait_thread(handle, timeout_ms) -> wait status; a negative timeout waits forever
//
// Invalid handles yield 0 together with ErrInvalidHandle, so a host that only
// forwards the integer sees the same value a script always has.
func (r *Registry) Natives(decode NameDecoder) []NativeInfo {
	return []NativeInfo{
		{Name: "create_thread", Func: func(ctx context.Context, params ...int64) (int64, error) {
			if len(params) < 1 {
				return 0, fmt.Errorf("create_thread: %w", ErrNativeArgs)
			}
			name, err := decode(ctx, params[0])
			if err != nil {
				return 0, &ResolutionError{Name: fmt.Sprintf("<param %d>", params[0]), Err: err}
			}
			h, err := r.Create(ctx, name)
			return int64(h), err
		}},
		{Name: "destroy_thread", Func: func(_ context.Context, params ...int64) (int64, error) {
			if len(params) < 1 {
				return 0, fmt.Errorf("destroy_thread: %w", ErrNativeArgs)
			}
			if r.Destroy(nativeHandle(params[0])) {
				return 1, nil
			}
			return 0, ErrInvalidHandle
		}},
		{Name: "resume_thread", Func: func(_ context.Context, params ...int64) (int64, error) {
			if len(params) < 1 {
				return 0, fmt.Errorf("resume_thread: %w", ErrNativeArgs)
			}
			n, err := r.Resume(nativeHandle(params[0]))
			return int64(n), err
		}},
		{Name: "suspend_thread", Func: func(_ context.Context, params ...int64) (int64, error) {
			if len(params) < 1 {
				return 0, fmt.Errorf("suspend_thread: %w", ErrNativeArgs)
			}
			n, err := r.Suspend(nativeHandle(params[0]))
			return int64(n), err
		}},
		{Name: "wait_thread", Func: func(ctx context.Context, params ...int64) (int64, error) {
			if len(params) < 2 {
				return 0, fmt.Errorf("wait_thread: %w", ErrNativeArgs)
			}
			timeout := Infinite
			if params[1] >= 0 {
				timeout = time.Duration(params[1]) * time.Millisecond
			}
			status, err := r.Wait(ctx, nativeHandle(params[0]), timeout)
			return int64(status), err
		}},
	}
}

// nativeHandle maps out-of-range parameters to NoThread.
func nativeHandle(p int64) Handle {
	if p <= 0 || p > int64(^uint32(0)) {
		return NoThread
	}
	return Handle(p)
}
