package storage

import (
	"context"
	"sync"
)

// Memory implements SeenStore with an in-process set.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// MarkSeen records key and reports whether it was new.
func (m *Memory) MarkSeen(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[key]; ok {
		return false, nil
	}
	m.seen[key] = struct{}{}
	return true, nil
}

// CountSeen returns the number of recorded keys.
func (m *Memory) CountSeen(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen), nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ SeenStore = (*Memory)(nil)
