// Package wasmengine runs threadkit callbacks as exported functions of a
// WebAssembly module, using wazero.
//
// A callback is any export with signature (i32) -> i32 or (i32) -> i64. The
// parameter receives the thread's 0-based slot index; the result is stored
// as the thread's result. Each thread gets its own anonymous instance of the
// module, so guests never share linear memory or globals.
//
// Guests may import a checkpoint function to make themselves pausable:
//
//	(import "threadkit" "checkpoint" (func $checkpoint (result i32)))
//
// It returns 0 to continue and 1 once the thread's slot was destroyed, in
// which case the guest should return promptly.
package wasmengine
