// Package motion turns noisy per-frame hand landmarks into a stable
// moving/still signal for sign segmentation.
package motion

import "github.com/ayusman/mudra/internal/detector"

// DefaultAlpha is the default smoothing factor. Higher values are more
// responsive and smooth less.
const DefaultAlpha = 0.85

type smoothKey struct {
	hand  int
	index int
}

// Smoother applies exponential smoothing to landmark positions,
// independently per (hand slot, landmark index) key and per axis.
type Smoother struct {
	alpha float64
	state map[smoothKey]detector.Point3D
}

// NewSmoother creates a Smoother with the given smoothing factor.
// Factors outside (0, 1] fall back to DefaultAlpha.
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Smoother{
		alpha: alpha,
		state: make(map[smoothKey]detector.Point3D),
	}
}

// Smooth blends the raw position with the previous smoothed position
// for the same key. The first observation for a key is returned
// unchanged and cached.
func (s *Smoother) Smooth(hand, index int, raw detector.Point3D) detector.Point3D {
	key := smoothKey{hand: hand, index: index}

	prev, ok := s.state[key]
	if !ok {
		s.state[key] = raw
		return raw
	}

	smoothed := detector.Point3D{
		X: s.alpha*raw.X + (1-s.alpha)*prev.X,
		Y: s.alpha*raw.Y + (1-s.alpha)*prev.Y,
		Z: s.alpha*raw.Z + (1-s.alpha)*prev.Z,
	}
	s.state[key] = smoothed
	return smoothed
}

// Reset clears all cached positions. Used when hand tracking is lost.
func (s *Smoother) Reset() {
	s.state = make(map[smoothKey]detector.Point3D)
}
