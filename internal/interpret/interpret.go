// Package interpret provides the downstream segment interpreter boundary.
package interpret

import (
	"context"
	"sync"

	"github.com/ayusman/mudra/internal/detector"
)

// FallbackText is the placeholder surfaced when the interpreter fails.
const FallbackText = "[unrecognized sign]"

// Result is the interpreter's output for one completed segment.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Fallback returns the degraded result used when interpretation fails.
// A segment always completes; interpreter errors never fail it.
func Fallback() Result {
	return Result{Text: FallbackText, Confidence: 0}
}

// Interpreter turns a completed segment's buffers into text. Invoked
// exactly once per segment.
type Interpreter interface {
	Interpret(ctx context.Context, landmarks []detector.HandFrame, images [][]byte) (Result, error)
}

// Mock is a test interpreter returning pre-configured results.
type Mock struct {
	mu     sync.Mutex
	result Result
	err    error
	calls  int
	block  chan struct{}
}

// NewMock creates a Mock interpreter that immediately returns its
// configured result.
func NewMock() *Mock {
	return &Mock{result: Result{Text: "hello", Confidence: 0.9}}
}

// SetResult sets the result Interpret will return.
func (m *Mock) SetResult(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.result = r
}

// SetError sets the error Interpret will return.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Block makes Interpret wait until Release (or context cancellation).
func (m *Mock) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.block = make(chan struct{})
}

// Release unblocks a pending Interpret call.
func (m *Mock) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.block != nil {
		close(m.block)
		m.block = nil
	}
}

// Calls returns how many times Interpret has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Interpret returns the configured result or error.
func (m *Mock) Interpret(ctx context.Context, landmarks []detector.HandFrame, images [][]byte) (Result, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	result := m.result
	err := m.err
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if err != nil {
		return Result{}, err
	}
	return result, nil
}
