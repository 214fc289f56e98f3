// Package gate rate-limits calls to the external sign classifier.
package gate

import (
	"sync"
	"time"
)

// Defaults for the live pipeline.
const (
	// DefaultMinInterval spaces classifier calls out so a remote
	// backend is not hit on every frame.
	DefaultMinInterval = 500 * time.Millisecond

	// DefaultMaxConcurrent caps in-flight classifier calls.
	DefaultMaxConcurrent = 1

	// DefaultMotionCeiling is the motion magnitude above which
	// classification is skipped: per-frame classifiers are unreliable
	// on fast-moving, motion-blurred input.
	DefaultMotionCeiling = 0.1
)

// Gate decides whether the external classifier may be invoked right
// now. Callers must bracket each permitted call with Begin and Done;
// Done must run on error paths too.
type Gate struct {
	mu            sync.Mutex
	minInterval   time.Duration
	maxConcurrent int
	motionCeiling float64

	lastCall time.Time
	active   int

	now func() time.Time
}

// New creates a Gate. Non-positive arguments fall back to defaults.
func New(minInterval time.Duration, maxConcurrent int, motionCeiling float64) *Gate {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if motionCeiling <= 0 {
		motionCeiling = DefaultMotionCeiling
	}
	return &Gate{
		minInterval:   minInterval,
		maxConcurrent: maxConcurrent,
		motionCeiling: motionCeiling,
		now:           time.Now,
	}
}

// ShouldCall reports whether a classifier call is permitted given the
// current motion magnitude.
func (g *Gate) ShouldCall(motionMagnitude float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() && g.now().Sub(g.lastCall) < g.minInterval {
		return false
	}
	if g.active >= g.maxConcurrent {
		return false
	}
	if motionMagnitude > g.motionCeiling {
		return false
	}
	return true
}

// Begin records the start of a permitted call: bumps the in-flight
// count and stamps the interval clock.
func (g *Gate) Begin() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active++
	g.lastCall = g.now()
}

// Done records the end of a call, successful or not.
func (g *Gate) Done() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active > 0 {
		g.active--
	}
}

// Active returns the number of in-flight calls.
func (g *Gate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}
