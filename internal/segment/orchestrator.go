// Package segment drives the sign segmentation state machine: it
// watches the motion signal, buffers frames while a sign is performed,
// and hands completed segments to the downstream interpreter.
package segment

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
	"github.com/ayusman/mudra/internal/gate"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/motion"
)

// State identifies where the orchestrator is in one segment's life.
type State int

const (
	// StateIdle means no sign is in progress.
	StateIdle State = iota
	// StateSigning means hands are moving and frames are buffering.
	StateSigning
	// StatePauseDetected means the hands went still; the pause timer
	// is running toward the silence threshold.
	StatePauseDetected
	// StateProcessing means the segment is frozen and the interpreter
	// is working on it.
	StateProcessing
	// StateComplete means an interpreter result is being surfaced.
	// It lasts exactly one tick before the return to StateIdle.
	StateComplete
)

// String returns the state name for logs and the event stream.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSigning:
		return "signing"
	case StatePauseDetected:
		return "pause_detected"
	case StateProcessing:
		return "processing"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds segmentation tuning.
type Config struct {
	// SilenceThreshold is how long the hands must stay still for the
	// segment to be considered complete.
	SilenceThreshold time.Duration

	// LandmarkBufferCap caps the per-segment landmark frame buffer.
	LandmarkBufferCap int

	// ImageBufferCap caps the per-segment sampled image buffer.
	ImageBufferCap int

	// ImageSampleEvery appends every Nth raw frame to the image buffer.
	ImageSampleEvery int

	// ClassifyTimeout bounds one external classification call.
	ClassifyTimeout time.Duration

	// InterpretTimeout bounds one interpreter call, guaranteeing the
	// segment leaves StateProcessing even when the backend hangs.
	InterpretTimeout time.Duration
}

// DefaultConfig returns the segmentation tuning used by the live
// pipeline.
func DefaultConfig() Config {
	return Config{
		SilenceThreshold:  1300 * time.Millisecond,
		LandmarkBufferCap: 120,
		ImageBufferCap:    20,
		ImageSampleEvery:  4,
		ClassifyTimeout:   2 * time.Second,
		InterpretTimeout:  10 * time.Second,
	}
}

// Event is what the orchestrator reports after each tick: the current
// state tag, pause progress while in StatePauseDetected, the latest
// fusion verdict, and the interpreter result on StateComplete. This is
// the sole output contract consumers depend on.
type Event struct {
	State     State             `json:"state"`
	Progress  float64           `json:"progress,omitempty"`
	Magnitude float64           `json:"magnitude"`
	Verdict   fusion.Verdict    `json:"verdict"`
	Result    *interpret.Result `json:"result,omitempty"`
	SegmentID string            `json:"segmentId,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Orchestrator runs the per-frame segmentation loop for one camera
// stream. Tick is not safe for concurrent use; the async classifier
// and interpreter calls it issues re-synchronize through the mutex and
// are generation-tagged so stale results are dropped.
type Orchestrator struct {
	mu sync.Mutex

	cfg         Config
	analyzer    *motion.Analyzer
	gate        *gate.Gate
	engine      fusion.Engine
	classifier  classify.Classifier
	interpreter interpret.Interpreter

	state      State
	since      time.Time
	generation string
	frames     []detector.HandFrame
	images     [][]byte
	frameCount int
	history    fusion.History
	verdict    fusion.Verdict
	pending    *interpret.Result

	now func() time.Time
}

// New creates an Orchestrator. classifier and interpreter may be nil;
// a nil classifier means every verdict stays Rely, a nil interpreter
// means every segment completes with the fallback result.
func New(cfg Config, analyzer *motion.Analyzer, g *gate.Gate, engine fusion.Engine, classifier classify.Classifier, interpreter interpret.Interpreter) *Orchestrator {
	def := DefaultConfig()
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = def.SilenceThreshold
	}
	if cfg.LandmarkBufferCap <= 0 {
		cfg.LandmarkBufferCap = def.LandmarkBufferCap
	}
	if cfg.ImageBufferCap <= 0 {
		cfg.ImageBufferCap = def.ImageBufferCap
	}
	if cfg.ImageSampleEvery <= 0 {
		cfg.ImageSampleEvery = def.ImageSampleEvery
	}
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = def.ClassifyTimeout
	}
	if cfg.InterpretTimeout <= 0 {
		cfg.InterpretTimeout = def.InterpretTimeout
	}

	window := engine.TemporalWindow
	if window <= 0 {
		window = fusion.DefaultTemporalWindow
	}

	return &Orchestrator{
		cfg:         cfg,
		analyzer:    analyzer,
		gate:        g,
		engine:      engine,
		classifier:  classifier,
		interpreter: interpreter,
		state:       StateIdle,
		generation:  uuid.NewString(),
		history:     fusion.NewHistory(2 * window),
		verdict:     fusion.Rely(),
		now:         time.Now,
	}
}

// Tick processes one incoming frame. image lazily supplies the
// JPEG-encoded raw frame and is only invoked on ticks that sample into
// the image buffer or feed the classifier; it may be nil.
func (o *Orchestrator) Tick(frame *detector.HandFrame, image func() []byte) Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()
	magnitude := o.analyzer.Update(frame)

	// Tracking dropout past the occlusion tolerance ends the gesture
	// outright. A segment already in Processing is left to finish:
	// hands naturally drop while the signer waits for the translation.
	if o.analyzer.TrackingLost() && (o.state == StateSigning || o.state == StatePauseDetected) {
		log.Printf("segment %s abandoned: hand tracking lost", o.generation)
		o.clearSegment()
		o.state = StateIdle
		return o.event(StateIdle, 0, magnitude, nil, now)
	}

	switch o.state {
	case StateIdle:
		if !frame.Empty() && o.analyzer.IsMoving() {
			o.beginSegment(now)
			o.bufferFrame(now, image)
			o.maybeClassify(magnitude, image, now)
		}

	case StateSigning:
		o.bufferFrame(now, image)
		o.maybeClassify(magnitude, image, now)
		if o.analyzer.IsStill() {
			o.state = StatePauseDetected
			o.since = now
		}

	case StatePauseDetected:
		o.bufferFrame(now, image)
		o.maybeClassify(magnitude, image, now)
		switch {
		case !o.analyzer.IsStill():
			// Motion resumed before the threshold; the pause onset is
			// discarded and a later pause restarts the clock.
			o.state = StateSigning
			o.since = time.Time{}
		case now.Sub(o.since) >= o.cfg.SilenceThreshold:
			o.state = StateProcessing
			o.startInterpret()
		default:
			progress := float64(now.Sub(o.since)) / float64(o.cfg.SilenceThreshold)
			if progress > 1 {
				progress = 1
			}
			return o.event(StatePauseDetected, progress, magnitude, nil, now)
		}

	case StateProcessing:
		if o.pending != nil {
			result := o.pending
			id := o.generation
			o.clearSegment()
			o.state = StateIdle
			ev := o.event(StateComplete, 1, magnitude, result, now)
			ev.SegmentID = id
			return ev
		}
	}

	return o.event(o.state, 0, magnitude, nil, now)
}

// State returns the current state tag.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Verdict returns the most recent fusion verdict. While a classifier
// call is in flight this is the previous, stale-but-available verdict.
func (o *Orchestrator) Verdict() fusion.Verdict {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.verdict
}

// History returns the detection history accumulated so far.
func (o *Orchestrator) History() fusion.History {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history
}

// Reset discards all per-segment state, invalidates in-flight calls
// and returns to StateIdle. Detection history and smoothing state are
// cleared too; Reset models a new signer, not a new utterance.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.analyzer.Reset()
	o.clearSegment()
	o.state = StateIdle
	window := o.engine.TemporalWindow
	if window <= 0 {
		window = fusion.DefaultTemporalWindow
	}
	o.history = fusion.NewHistory(2 * window)
	o.verdict = fusion.Rely()
}

func (o *Orchestrator) event(state State, progress, magnitude float64, result *interpret.Result, now time.Time) Event {
	ev := Event{
		State:     state,
		Progress:  progress,
		Magnitude: magnitude,
		Verdict:   o.verdict,
		Result:    result,
		Timestamp: now,
	}
	if state == StateSigning || state == StatePauseDetected || state == StateProcessing {
		ev.SegmentID = o.generation
	}
	return ev
}

// beginSegment starts a new segment at the Idle→Signing transition.
func (o *Orchestrator) beginSegment(now time.Time) {
	o.state = StateSigning
	o.generation = uuid.NewString()
	o.frames = make([]detector.HandFrame, 0, o.cfg.LandmarkBufferCap)
	o.images = make([][]byte, 0, o.cfg.ImageBufferCap)
	o.frameCount = 0
	o.since = time.Time{}
	o.pending = nil
	o.verdict = fusion.Rely()
	log.Printf("segment %s started", o.generation)
}

// clearSegment atomically drops the per-segment buffers and timers and
// invalidates any in-flight call by rotating the generation tag.
func (o *Orchestrator) clearSegment() {
	o.frames = nil
	o.images = nil
	o.frameCount = 0
	o.since = time.Time{}
	o.pending = nil
	o.generation = uuid.NewString()
}

// bufferFrame appends the analyzer's smoothed landmarks to the
// landmark buffer and every Nth raw image to the image buffer.
func (o *Orchestrator) bufferFrame(now time.Time, image func() []byte) {
	o.frames = appendFrame(o.frames, detector.HandFrame{
		Hands:     o.analyzer.Current(),
		Timestamp: now,
	}, o.cfg.LandmarkBufferCap)

	if o.frameCount%o.cfg.ImageSampleEvery == 0 && image != nil {
		if img := image(); img != nil {
			o.images = appendImage(o.images, img, o.cfg.ImageBufferCap)
		}
	}
	o.frameCount++
}

// maybeClassify launches one rate-gated classifier call. The result is
// applied only if the segment generation still matches when it lands;
// classifier failures collapse to "no observation" and fuse to Rely.
func (o *Orchestrator) maybeClassify(magnitude float64, image func() []byte, now time.Time) {
	if o.classifier == nil || !o.gate.ShouldCall(magnitude) {
		return
	}

	sample := classify.Sample{
		Hands:     o.analyzer.Current(),
		Timestamp: now,
	}
	if image != nil {
		sample.Image = image()
	}

	generation := o.generation
	o.gate.Begin()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.ClassifyTimeout)
		defer cancel()
		defer o.gate.Done()

		obs, err := o.classifier.Classify(ctx, sample)
		if err != nil {
			log.Printf("classify: %v", err)
			obs = nil
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.generation != generation {
			// Stale generation: the segment this call was issued for
			// is gone. Drop silently.
			return
		}
		o.verdict = o.engine.Fuse(obs, o.history)
		if obs != nil {
			o.history = o.history.Append(*obs)
		}
	}()
}

// startInterpret freezes the buffers and invokes the interpreter once
// for the completed segment. The segment always leaves Processing: on
// error or timeout the fallback result completes it.
func (o *Orchestrator) startInterpret() {
	if o.interpreter == nil {
		fallback := interpret.Fallback()
		o.pending = &fallback
		return
	}

	generation := o.generation
	frames := o.frames
	images := o.images
	o.frames = nil
	o.images = nil

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.InterpretTimeout)
		defer cancel()

		result, err := o.interpreter.Interpret(ctx, frames, images)
		if err != nil {
			log.Printf("interpret segment %s: %v", generation, err)
			result = interpret.Fallback()
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		if o.generation != generation || o.state != StateProcessing {
			return
		}
		o.pending = &result
	}()
}
