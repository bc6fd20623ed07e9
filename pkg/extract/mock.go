package extract

import (
	"context"
	"sync"
)

// MockExtractor is an Extractor double for session tests.
type MockExtractor struct {
	Result Result
	Raw    string
	Err    error

	mu        sync.Mutex
	calls     int
	lastImage []byte
}

// Extract implements Extractor.
func (m *MockExtractor) Extract(ctx context.Context, jpeg []byte) (Result, string, error) {
	m.mu.Lock()
	m.calls++
	m.lastImage = append([]byte(nil), jpeg...)
	m.mu.Unlock()

	if m.Err != nil {
		return DefaultResult(""), "", m.Err
	}
	return m.Result, m.Raw, nil
}

// Calls returns how many extractions ran.
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastImage returns a copy of the most recent payload.
func (m *MockExtractor) LastImage() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.lastImage...)
}
