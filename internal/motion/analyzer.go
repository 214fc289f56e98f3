package motion

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Config holds tuning parameters for the Analyzer.
type Config struct {
	// Alpha is the landmark smoothing factor (see Smoother).
	Alpha float64

	// MotionThreshold is the rolling-average magnitude below which the
	// hands count as still, in normalized image units per frame.
	MotionThreshold float64

	// MergeDistance is the centroid distance below which two detected
	// hands are treated as a doubled detection of one physical hand.
	MergeDistance float64

	// DepthWeight scales the z contribution to per-point distance.
	// Depth from a monocular tracker is noisier than x/y, so it is
	// weighted down rather than trusted equally.
	DepthWeight float64

	// MaxAcceleration is the largest per-point velocity change, per
	// frame, accepted as genuine motion. Larger jumps are tracking
	// noise and are excluded from the frame magnitude.
	MaxAcceleration float64

	// HistorySize is the capacity of the rolling magnitude window.
	HistorySize int

	// StillFrames is how many samples the window must hold before
	// IsStill may report true.
	StillFrames int

	// OcclusionTolerance is how many consecutive hand-absent frames
	// are treated as a tracking glitch rather than a gesture end.
	OcclusionTolerance int
}

// DefaultConfig returns the tuning used by the live pipeline.
func DefaultConfig() Config {
	return Config{
		Alpha:              DefaultAlpha,
		MotionThreshold:    0.02,
		MergeDistance:      0.05,
		DepthWeight:        0.5,
		MaxAcceleration:    0.25,
		HistorySize:        5,
		StillFrames:        4,
		OcclusionTolerance: 3,
	}
}

// Analyzer classifies hand motion as moving or still from a stream of
// landmark frames. It smooths raw coordinates, rejects tracking-noise
// spikes by their implied acceleration, and keeps a short rolling
// window of per-frame motion magnitudes.
//
// One Analyzer serves one camera stream and is not safe for concurrent
// use; each Update must complete before the next frame is analyzed.
type Analyzer struct {
	cfg      Config
	smoother *Smoother

	prev       [][detector.NumLandmarks]detector.Point3D
	velocities [][detector.NumLandmarks]float64
	history    []float64
	occluded   int
	current    []detector.HandLandmarks
}

// NewAnalyzer creates an Analyzer with the given configuration.
// Zero-valued fields are replaced with defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.MotionThreshold <= 0 {
		cfg.MotionThreshold = def.MotionThreshold
	}
	if cfg.MergeDistance <= 0 {
		cfg.MergeDistance = def.MergeDistance
	}
	if cfg.DepthWeight <= 0 {
		cfg.DepthWeight = def.DepthWeight
	}
	if cfg.MaxAcceleration <= 0 {
		cfg.MaxAcceleration = def.MaxAcceleration
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.StillFrames <= 0 {
		cfg.StillFrames = def.StillFrames
	}
	if cfg.OcclusionTolerance <= 0 {
		cfg.OcclusionTolerance = def.OcclusionTolerance
	}

	return &Analyzer{
		cfg:      cfg,
		smoother: NewSmoother(cfg.Alpha),
		history:  make([]float64, 0, cfg.HistorySize),
	}
}

// Update consumes one frame and returns the motion magnitude it
// produced (0 if no delta could be computed).
//
// A nil or empty frame counts toward the occlusion counter: within the
// tolerance the rolling average is returned unchanged, treating the
// dropout as a continuation of the gesture; past it all tracking state
// is cleared.
func (a *Analyzer) Update(frame *detector.HandFrame) float64 {
	if frame.Empty() {
		a.occluded++
		if a.occluded <= a.cfg.OcclusionTolerance && a.prev != nil {
			return a.Magnitude()
		}
		a.clearTracking()
		return 0
	}
	a.occluded = 0

	hands := frame.Hands
	if len(hands) > detector.MaxHands {
		hands = hands[:detector.MaxHands]
	}

	// Two detections with nearly coincident centroids are crosstalk
	// from one physical hand; keep only the first.
	if len(hands) == 2 &&
		detector.CentroidDistance(&hands[0], &hands[1]) < a.cfg.MergeDistance {
		hands = hands[:1]
	}

	smoothed := make([][detector.NumLandmarks]detector.Point3D, len(hands))
	a.current = make([]detector.HandLandmarks, len(hands))
	for slot := range hands {
		a.current[slot] = hands[slot]
		for i := 0; i < detector.NumLandmarks; i++ {
			p := a.smoother.Smooth(slot, i, hands[slot].Points[i])
			smoothed[slot][i] = p
			a.current[slot].Points[i] = p
		}
	}

	if a.prev == nil {
		a.prev = smoothed
		a.velocities = make([][detector.NumLandmarks]float64, len(smoothed))
		return 0
	}

	magnitude := a.frameMagnitude(smoothed)
	a.push(magnitude)
	a.prev = smoothed
	return magnitude
}

// frameMagnitude averages per-point distances between the current and
// previous frame, skipping points whose velocity change exceeds the
// acceleration ceiling. Velocities are updated for the next frame as a
// side effect.
func (a *Analyzer) frameMagnitude(smoothed [][detector.NumLandmarks]detector.Point3D) float64 {
	velocities := make([][detector.NumLandmarks]float64, len(smoothed))

	var total float64
	var count int
	for slot := range smoothed {
		if slot >= len(a.prev) {
			// Newly appeared hand: no delta yet.
			continue
		}
		for i := 0; i < detector.NumLandmarks; i++ {
			cur := smoothed[slot][i]
			old := a.prev[slot][i]
			dx := cur.X - old.X
			dy := cur.Y - old.Y
			dz := cur.Z - old.Z
			dist := math.Sqrt(dx*dx + dy*dy + a.cfg.DepthWeight*dz*dz)

			velocities[slot][i] = dist

			accel := math.Abs(dist - a.velocities[slot][i])
			if accel > a.cfg.MaxAcceleration {
				// Tracking-noise spike; keep it out of the average.
				continue
			}

			total += dist
			count++
		}
	}

	a.velocities = velocities

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func (a *Analyzer) push(magnitude float64) {
	if len(a.history) >= a.cfg.HistorySize {
		copy(a.history, a.history[1:])
		a.history = a.history[:a.cfg.HistorySize-1]
	}
	a.history = append(a.history, magnitude)
}

// Magnitude returns the rolling average of the motion history.
func (a *Analyzer) Magnitude() float64 {
	if len(a.history) == 0 {
		return 0
	}
	var total float64
	for _, m := range a.history {
		total += m
	}
	return total / float64(len(a.history))
}

// IsStill reports whether the hands are at rest. It refuses to claim
// stillness until the window holds at least StillFrames samples.
func (a *Analyzer) IsStill() bool {
	if len(a.history) < a.cfg.StillFrames {
		return false
	}
	return a.Magnitude() < a.cfg.MotionThreshold
}

// IsMoving reports whether the rolling average is at or above the
// motion threshold. Unlike IsStill it has no minimum-history gate.
func (a *Analyzer) IsMoving() bool {
	return a.Magnitude() >= a.cfg.MotionThreshold
}

// TrackingLost reports whether hands have been absent for longer than
// the occlusion tolerance.
func (a *Analyzer) TrackingLost() bool {
	return a.occluded > a.cfg.OcclusionTolerance
}

// Current returns the smoothed landmarks of the last good frame, after
// hand disambiguation. Nil until a frame with hands has been seen.
func (a *Analyzer) Current() []detector.HandLandmarks {
	return a.current
}

// Reset clears all internal state unconditionally.
func (a *Analyzer) Reset() {
	a.clearTracking()
	a.occluded = 0
}

// clearTracking drops smoothing state, motion history and previous
// landmarks but leaves the occlusion counter alone so TrackingLost
// keeps reporting the dropout until hands reappear.
func (a *Analyzer) clearTracking() {
	a.smoother.Reset()
	a.prev = nil
	a.velocities = nil
	a.history = a.history[:0]
	a.current = nil
}
