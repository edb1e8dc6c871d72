package journal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps events in memory. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event // registryID -> events in append order
	seq    int64
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]Event),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.seq++
	ev.Sequence = m.seq
	ev.Timestamp = time.Now().UTC()
	m.events[ev.RegistryID] = append(m.events[ev.RegistryID], ev)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, registryID string) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := make([]Event, len(m.events[registryID]))
	copy(out, m.events[registryID])
	return out, nil
}

// ListHandle implements Store.
func (m *MemoryStore) ListHandle(_ context.Context, registryID string, handle uint32) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	out := []Event{}
	for _, ev := range m.events[registryID] {
		if ev.Handle == handle {
			out = append(out, ev)
		}
	}
	return out, nil
}

// DeleteRegistry implements Store.
func (m *MemoryStore) DeleteRegistry(_ context.Context, registryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.events, registryID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.events = nil
	return nil
}
