package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Mock is an in-memory Store for tests.
type Mock struct {
	naming Naming

	mu      sync.Mutex
	objects map[string]int64
	deleted []string

	// ListErr and DeleteErr, when set, are returned by the corresponding
	// operation.
	ListErr   error
	DeleteErr error
}

// NewMock creates an empty in-memory store.
func NewMock(naming Naming) *Mock {
	return &Mock{
		naming:  naming,
		objects: make(map[string]int64),
	}
}

// Add inserts a backup taken at ts, keyed by the naming rule.
func (m *Mock) Add(ts time.Time) string {
	key := m.naming.Key(ts)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = 1
	return key
}

// AddKey inserts an arbitrary key, matching the naming rule or not.
func (m *Mock) AddKey(key string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = size
}

// Deleted returns the keys removed so far, in deletion order.
func (m *Mock) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// Keys returns the remaining keys in sorted order.
func (m *Mock) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.objects))
	for k := range m.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// List implements Store.
func (m *Mock) List(ctx context.Context) (Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return Listing{}, m.ListErr
	}
	raw := make([]Backup, 0, len(m.objects))
	for key, size := range m.objects {
		raw = append(raw, Backup{Key: key, SizeBytes: size})
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i].Key < raw[j].Key })
	return list(m.naming, raw), nil
}

// Delete implements Store.
func (m *Mock) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// Close implements Store.
func (m *Mock) Close() error { return nil }
