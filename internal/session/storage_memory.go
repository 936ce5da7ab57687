package session

import (
	"context"
	"sort"
	"sync"
)

// MemoryStorage keeps entries in process memory. Nothing survives a restart.
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]Entry)}
}

func (m *MemoryStorage) Load(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) Save(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = copyEntry(entry)
	return nil
}

func (m *MemoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// Put writes raw values for id, bypassing the Store. Used to seed storage.
func (m *MemoryStorage) Put(id, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		e = Entry{ID: id, Values: make(map[string]string)}
	}
	e.Values[key] = value
	m.entries[id] = e
}

// Value returns a raw persisted value
func (m *MemoryStorage) Value(id, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[id].Values[key]
	return v, ok
}

// Len returns the number of persisted ids
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func copyEntry(e Entry) Entry {
	values := make(map[string]string, len(e.Values))
	for k, v := range e.Values {
		values[k] = v
	}
	return Entry{ID: e.ID, Values: values, ExpiresAt: e.ExpiresAt}
}
