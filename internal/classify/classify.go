// Package classify provides the per-frame sign classifier boundary.
package classify

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
)

// Sample is one frame handed to a classifier: the encoded image (for
// image-based backends, may be nil) plus the smoothed landmarks.
type Sample struct {
	Image     []byte
	Hands     []detector.HandLandmarks
	Timestamp time.Time
}

// Classifier produces at most one observation per sample: the single
// best (max-confidence) candidate. A nil observation with a nil error
// means the sample matched nothing.
type Classifier interface {
	Classify(ctx context.Context, sample Sample) (*fusion.Observation, error)
	Close() error
}

// Mock is a test classifier returning pre-configured results.
type Mock struct {
	mu    sync.Mutex
	obs   *fusion.Observation
	err   error
	calls int
	block chan struct{}
}

// NewMock creates a Mock classifier.
func NewMock() *Mock {
	return &Mock{}
}

// SetObservation sets the observation Classify will return.
func (m *Mock) SetObservation(obs *fusion.Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = obs
}

// SetError sets the error Classify will return.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes Classify wait until Release (or context cancellation).
func (m *Mock) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = make(chan struct{})
}

// Release unblocks a pending Classify call.
func (m *Mock) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block != nil {
		close(m.block)
		m.block = nil
	}
}

// Calls returns how many times Classify has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Classify returns the configured observation or error.
func (m *Mock) Classify(ctx context.Context, sample Sample) (*fusion.Observation, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	obs := m.obs
	err := m.err
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if obs == nil {
		return nil, nil
	}
	result := *obs
	result.Timestamp = sample.Timestamp
	return &result, nil
}

// Close is a no-op for the mock classifier.
func (m *Mock) Close() error {
	return nil
}
