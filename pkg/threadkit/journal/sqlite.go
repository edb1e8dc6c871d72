package journal

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists events to SQLite.
// It is suitable for single-process use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a journal database.
// The path should be a file path (e.g., "./threads.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS thread_events (
			sequence INTEGER PRIMARY KEY AUTOINCREMENT,
			registry_id TEXT NOT NULL,
			handle INTEGER NOT NULL,
			kind TEXT NOT NULL,
			target TEXT NOT NULL,
			result INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_thread_events_registry
		ON thread_events(registry_id, handle)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thread_events (registry_id, handle, kind, target, result, error, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.RegistryID, ev.Handle, string(ev.Kind), ev.Target, ev.Result, ev.Error,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, registryID string) ([]Event, error) {
	return s.query(ctx, `
		SELECT sequence, registry_id, handle, kind, target, result, error, timestamp
		FROM thread_events
		WHERE registry_id = ?
		ORDER BY sequence
	`, registryID)
}

// ListHandle implements Store.
func (s *SQLiteStore) ListHandle(ctx context.Context, registryID string, handle uint32) ([]Event, error) {
	return s.query(ctx, `
		SELECT sequence, registry_id, handle, kind, target, result, error, timestamp
		FROM thread_events
		WHERE registry_id = ? AND handle = ?
		ORDER BY sequence
	`, registryID, handle)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var ev Event
		var kind, timestamp string
		if err := rows.Scan(&ev.Sequence, &ev.RegistryID, &ev.Handle, &kind,
			&ev.Target, &ev.Result, &ev.Error, &timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = Kind(kind)
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// DeleteRegistry implements Store.
func (s *SQLiteStore) DeleteRegistry(ctx context.Context, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM thread_events WHERE registry_id = ?
	`, registryID); err != nil {
		return fmt.Errorf("delete registry events: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
