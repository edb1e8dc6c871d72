// Package journal records thread lifecycle events so results and faults stay
// inspectable after a thread's slot is destroyed.
package journal

import (
	"context"
	"errors"
	"time"
)

// Kind is the lifecycle event type.
type Kind string

// Lifecycle event kinds.
const (
	KindCreated   Kind = "created"
	KindResumed   Kind = "resumed"
	KindSuspended Kind = "suspended"
	KindCompleted Kind = "completed"
	KindFaulted   Kind = "faulted"
	KindAbandoned Kind = "abandoned"
	KindDestroyed Kind = "destroyed"
)

// Event is one journal entry.
type Event struct {
	// RegistryID identifies the registry instance that produced the event.
	RegistryID string
	// Handle is the external thread handle.
	Handle uint32
	Kind   Kind
	// Target is the callback name.
	Target string
	// Result is the callback result for KindCompleted, or the previous
	// suspend count for KindResumed and KindSuspended.
	Result int64
	// Error holds the fault text for KindFaulted.
	Error string

	// Sequence and Timestamp are assigned by the store on Append.
	Sequence  int64
	Timestamp time.Time
}

// Store persists lifecycle events.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores an event, assigning its sequence and timestamp.
	Append(ctx context.Context, ev Event) error

	// List returns all events of a registry ordered by sequence.
	// Returns an empty slice (not error) if there are none.
	List(ctx context.Context, registryID string) ([]Event, error)

	// ListHandle returns the events of one handle ordered by sequence.
	ListHandle(ctx context.Context, registryID string, handle uint32) ([]Event, error)

	// DeleteRegistry removes all events of a registry.
	DeleteRegistry(ctx context.Context, registryID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("journal store closed")
