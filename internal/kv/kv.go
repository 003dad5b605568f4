// Package kv provides the durable key-value stores the flow engine persists
// its state in.
//
// Three backends share the Store interface:
//
//   - FileStore: a single TOML document on disk, rewritten atomically on
//     every mutation. The default for the host binary.
//   - SQLiteStore: a one-table SQLite database (modernc.org/sqlite, no cgo).
//   - Memory: an in-process map for tests and embedding.
//
// Values are plain strings. Callers that need booleans or blobs encode them
// themselves; the layout is private to the flow engine.
package kv

import (
	"context"
	"sort"
	"sync"
)

// Store is a durable string-to-string map.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

var (
	_ Store = (*Memory)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

// Memory is a Store backed by a map. The zero value is ready to use.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns a Memory seeded with a copy of initial.
func NewMemory(initial map[string]string) *Memory {
	m := &Memory{data: make(map[string]string, len(initial))}
	for k, v := range initial {
		m.data[k] = v
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
