package capture

import (
	"sync"

	"github.com/metersnap/metersnap/pkg/enhance"
)

// MockEnhancer is an Enhancer double so session tests run without the
// native pipeline.
type MockEnhancer struct {
	// Output is returned for every valid frame.
	Output enhance.Enhanced

	// Err fails every call.
	Err error

	mu    sync.Mutex
	calls int
}

// Enhance implements Enhancer. It honors the pipeline's input contract:
// empty frames are rejected, never silently processed.
func (m *MockEnhancer) Enhance(frame enhance.Frame) (enhance.Enhanced, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return enhance.Enhanced{}, m.Err
	}
	if frame.Empty() {
		return enhance.Enhanced{}, enhance.ErrInvalidFrame
	}
	return m.Output, nil
}

// Calls returns how many enhancements ran.
func (m *MockEnhancer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
