package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store double for session tests.
type MockStore struct {
	// Err fails every Save with this error.
	Err error

	mu       sync.Mutex
	readings []Reading
}

// Save implements Store.
func (m *MockStore) Save(ctx context.Context, r *Reading) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uint(len(m.readings) + 1)
	m.readings = append(m.readings, *r)
	return nil
}

// Recent implements Store.
func (m *MockStore) Recent(ctx context.Context, n int) ([]Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Reading
	for i := len(m.readings) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.readings[i])
	}
	return out, nil
}

// Count returns how many readings were saved.
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readings)
}

// Last returns the most recent saved reading.
func (m *MockStore) Last() *Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.readings) == 0 {
		return nil
	}
	r := m.readings[len(m.readings)-1]
	return &r
}
