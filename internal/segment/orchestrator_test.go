package segment

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
	"github.com/ayusman/mudra/internal/gate"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/motion"
)

// fakeClock pins the orchestrator's notion of time so pause timing is
// deterministic regardless of test host speed.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestOrchestrator(cfg Config, classifier classify.Classifier, interpreter interpret.Interpreter) (*Orchestrator, *fakeClock) {
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	o := New(cfg,
		motion.NewAnalyzer(motion.DefaultConfig()),
		gate.New(0, 0, 0),
		fusion.NewEngine(),
		classifier, interpreter)
	o.now = clk.now
	return o, clk
}

func handFrame(hands ...detector.HandLandmarks) *detector.HandFrame {
	return &detector.HandFrame{Hands: hands}
}

// driveToSigning feeds a seed frame plus one large shift so the motion
// average crosses the threshold. Returns the hand at its final position.
func driveToSigning(t *testing.T, o *Orchestrator) detector.HandLandmarks {
	t.Helper()
	hand := detector.OpenPalmLandmarks()
	o.Tick(handFrame(hand), nil)
	hand = detector.Translated(hand, 0.15, 0, 0)
	o.Tick(handFrame(hand), nil)
	if o.State() != StateSigning {
		t.Fatalf("state = %v after motion, want signing", o.State())
	}
	return hand
}

// driveToPause holds the hand still until the orchestrator notices.
func driveToPause(t *testing.T, o *Orchestrator, hand detector.HandLandmarks) {
	t.Helper()
	for i := 0; i < 20; i++ {
		o.Tick(handFrame(hand), nil)
		if o.State() == StatePauseDetected {
			return
		}
	}
	t.Fatalf("never reached pause_detected, state = %v", o.State())
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestOrchestrator_StartsIdle(t *testing.T) {
	o, _ := newTestOrchestrator(Config{}, nil, nil)

	if o.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", o.State())
	}

	ev := o.Tick(nil, nil)
	if ev.State != StateIdle {
		t.Errorf("empty-frame tick state = %v, want idle", ev.State)
	}
	if ev.SegmentID != "" {
		t.Errorf("idle event carries segment id %q", ev.SegmentID)
	}
}

func TestOrchestrator_IdleToSigningOnMotion(t *testing.T) {
	o, _ := newTestOrchestrator(Config{}, nil, nil)

	hand := detector.OpenPalmLandmarks()
	o.Tick(handFrame(hand), nil)
	ev := o.Tick(handFrame(detector.Translated(hand, 0.15, 0, 0)), nil)

	if ev.State != StateSigning {
		t.Fatalf("state = %v after sustained motion, want signing", ev.State)
	}
	if ev.SegmentID == "" {
		t.Error("signing event has no segment id")
	}
	if ev.Magnitude == 0 {
		t.Error("signing event has zero magnitude")
	}
}

func TestOrchestrator_SigningToPauseOnStillness(t *testing.T) {
	o, _ := newTestOrchestrator(Config{}, nil, nil)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)

	ev := o.Tick(handFrame(hand), nil)
	if ev.State != StatePauseDetected {
		t.Fatalf("state = %v, want pause_detected", ev.State)
	}
}

func TestOrchestrator_PauseProgress(t *testing.T) {
	o, clk := newTestOrchestrator(Config{}, nil, nil)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)

	clk.advance(650 * time.Millisecond)
	ev := o.Tick(handFrame(hand), nil)

	if ev.State != StatePauseDetected {
		t.Fatalf("state = %v, want pause_detected", ev.State)
	}
	if ev.Progress < 0.45 || ev.Progress > 0.55 {
		t.Errorf("progress = %v at half the silence threshold, want ~0.5", ev.Progress)
	}
}

func TestOrchestrator_MotionResumeRestartsPauseClock(t *testing.T) {
	o, clk := newTestOrchestrator(Config{}, nil, nil)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)
	clk.advance(650 * time.Millisecond)

	// Motion resumes before the threshold: back to signing.
	hand = detector.Translated(hand, 0.15, 0, 0)
	ev := o.Tick(handFrame(hand), nil)
	if ev.State != StateSigning {
		t.Fatalf("state = %v after motion resumed, want signing", ev.State)
	}

	// A second pause measures from its own onset, not the first one's.
	driveToPause(t, o, hand)
	clk.advance(650 * time.Millisecond)
	ev = o.Tick(handFrame(hand), nil)
	if ev.State != StatePauseDetected {
		t.Fatalf("state = %v, want pause_detected", ev.State)
	}
	if ev.Progress > 0.6 {
		t.Errorf("progress = %v, want ~0.5 measured from the second pause onset", ev.Progress)
	}
}

func TestOrchestrator_CompletesSegment(t *testing.T) {
	mock := interpret.NewMock()
	mock.SetResult(interpret.Result{Text: "thank you", Confidence: 0.92})
	o, clk := newTestOrchestrator(Config{}, nil, mock)

	hand := driveToSigning(t, o)
	signingID := o.Tick(handFrame(hand), nil).SegmentID
	driveToPause(t, o, hand)

	clk.advance(DefaultConfig().SilenceThreshold)
	ev := o.Tick(handFrame(hand), nil)
	if ev.State != StateProcessing {
		t.Fatalf("state = %v past the silence threshold, want processing", ev.State)
	}

	var complete Event
	waitFor(t, func() bool {
		complete = o.Tick(handFrame(hand), nil)
		return complete.State == StateComplete
	}, "segment never completed")

	if complete.Result == nil || complete.Result.Text != "thank you" {
		t.Fatalf("complete result = %+v, want text %q", complete.Result, "thank you")
	}
	if complete.SegmentID != signingID {
		t.Errorf("complete segment id = %q, want %q", complete.SegmentID, signingID)
	}
	if got := mock.Calls(); got != 1 {
		t.Errorf("interpreter called %d times, want 1", got)
	}
	if o.State() != StateIdle {
		t.Errorf("state = %v after completion, want idle", o.State())
	}
}

func TestOrchestrator_InterpreterErrorFallsBack(t *testing.T) {
	mock := interpret.NewMock()
	mock.SetError(errors.New("backend unavailable"))
	o, clk := newTestOrchestrator(Config{}, nil, mock)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)
	clk.advance(DefaultConfig().SilenceThreshold)
	o.Tick(handFrame(hand), nil)

	var complete Event
	waitFor(t, func() bool {
		complete = o.Tick(handFrame(hand), nil)
		return complete.State == StateComplete
	}, "segment never completed after interpreter error")

	if complete.Result == nil || complete.Result.Text != interpret.FallbackText {
		t.Errorf("result = %+v, want fallback text %q", complete.Result, interpret.FallbackText)
	}
}

func TestOrchestrator_NilInterpreterFallsBack(t *testing.T) {
	o, clk := newTestOrchestrator(Config{}, nil, nil)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)
	clk.advance(DefaultConfig().SilenceThreshold)
	o.Tick(handFrame(hand), nil) // enters processing, pending set synchronously

	ev := o.Tick(handFrame(hand), nil)
	if ev.State != StateComplete {
		t.Fatalf("state = %v, want complete on the next tick", ev.State)
	}
	if ev.Result == nil || ev.Result.Text != interpret.FallbackText {
		t.Errorf("result = %+v, want fallback", ev.Result)
	}
}

func TestOrchestrator_TrackingLossAbandonsSegment(t *testing.T) {
	o, _ := newTestOrchestrator(Config{}, nil, nil)

	driveToSigning(t, o)

	var ev Event
	for i := 0; i < 10; i++ {
		ev = o.Tick(nil, nil)
		if ev.State == StateIdle {
			break
		}
	}
	if ev.State != StateIdle {
		t.Fatalf("state = %v after prolonged tracking loss, want idle", ev.State)
	}
	if ev.SegmentID != "" {
		t.Errorf("abandoned event carries segment id %q", ev.SegmentID)
	}
}

func TestOrchestrator_ClassifierHintSurfaces(t *testing.T) {
	mock := classify.NewMock()
	mock.SetObservation(&fusion.Observation{Label: "HELLO", Confidence: 0.9})
	o, _ := newTestOrchestrator(Config{}, mock, nil)

	hand := driveToSigning(t, o)

	// Hold still: per-frame magnitude drops below the gate's motion
	// ceiling and a classification is launched.
	for i := 0; i < 5; i++ {
		o.Tick(handFrame(hand), nil)
	}

	waitFor(t, func() bool {
		return o.Verdict().Action == fusion.ActionHint
	}, "classifier verdict never surfaced")

	v := o.Verdict()
	if !strings.Contains(v.Text, "90% confidence") {
		t.Errorf("hint text = %q, want rounded percentage", v.Text)
	}
	if o.History().Len() == 0 {
		t.Error("observation was not appended to the detection history")
	}
}

func TestOrchestrator_ClassifierErrorKeepsRelying(t *testing.T) {
	mock := classify.NewMock()
	mock.SetError(errors.New("helper crashed"))
	o, _ := newTestOrchestrator(Config{}, mock, nil)

	hand := driveToSigning(t, o)
	for i := 0; i < 5; i++ {
		o.Tick(handFrame(hand), nil)
	}

	waitFor(t, func() bool { return mock.Calls() > 0 }, "classifier never invoked")
	time.Sleep(20 * time.Millisecond) // let the goroutine apply its verdict

	if v := o.Verdict(); v.Action != fusion.ActionRely {
		t.Errorf("verdict after classifier error = %v, want rely", v.Action)
	}
	if o.History().Len() != 0 {
		t.Error("failed classification polluted the detection history")
	}
}

func TestOrchestrator_BufferCapsHold(t *testing.T) {
	cfg := Config{LandmarkBufferCap: 5, ImageBufferCap: 2, ImageSampleEvery: 1}
	o, _ := newTestOrchestrator(cfg, nil, nil)

	image := func() []byte { return []byte{0xff, 0xd8} }

	hand := driveToSigning(t, o)
	for i := 0; i < 30; i++ {
		o.Tick(handFrame(hand), image)
	}

	o.mu.Lock()
	frames, images := len(o.frames), len(o.images)
	o.mu.Unlock()

	if frames > 5 {
		t.Errorf("landmark buffer length = %d, want <= 5", frames)
	}
	if images > 2 {
		t.Errorf("image buffer length = %d, want <= 2", images)
	}
}

func TestOrchestrator_ImageSampling(t *testing.T) {
	cfg := Config{ImageSampleEvery: 4, ImageBufferCap: 100}
	o, _ := newTestOrchestrator(cfg, nil, nil)

	var supplied int
	image := func() []byte {
		supplied++
		return []byte{0xff}
	}

	hand := detector.OpenPalmLandmarks()
	o.Tick(handFrame(hand), image)
	o.Tick(handFrame(detector.Translated(hand, 0.15, 0, 0)), image)
	for i := 0; i < 10; i++ {
		o.Tick(handFrame(hand), image)
	}

	// 11 buffered frames (frame counts 0..10): samples at 0, 4 and 8.
	if supplied != 3 {
		t.Errorf("image supplier invoked %d times, want 3", supplied)
	}
}

func TestOrchestrator_Reset(t *testing.T) {
	o, _ := newTestOrchestrator(Config{}, nil, nil)

	hand := driveToSigning(t, o)
	driveToPause(t, o, hand)
	o.Reset()

	if o.State() != StateIdle {
		t.Errorf("state = %v after Reset, want idle", o.State())
	}
	if o.Verdict().Action != fusion.ActionRely {
		t.Errorf("verdict = %v after Reset, want rely", o.Verdict().Action)
	}
	if o.History().Len() != 0 {
		t.Errorf("history length = %d after Reset, want 0", o.History().Len())
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateSigning, "signing"},
		{StatePauseDetected, "pause_detected"},
		{StateProcessing, "processing"},
		{StateComplete, "complete"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}

func TestOrchestrator_StaleClassifyResultDropped(t *testing.T) {
	mock := classify.NewMock()
	mock.SetObservation(&fusion.Observation{Label: "HELLO", Confidence: 0.9})
	mock.Block()

	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	g := gate.New(0, 0, 0)
	o := New(Config{},
		motion.NewAnalyzer(motion.DefaultConfig()),
		g,
		fusion.NewEngine(),
		mock, nil)
	o.now = clk.now

	hand := driveToSigning(t, o)
	for i := 0; i < 5 && mock.Calls() == 0; i++ {
		o.Tick(handFrame(hand), nil)
	}
	waitFor(t, func() bool { return mock.Calls() == 1 }, "classifier was never invoked")

	// The segment is gone by the time the in-flight call lands.
	o.Reset()
	mock.Release()
	waitFor(t, func() bool { return g.Active() == 0 }, "classifier call never finished")

	if got := o.Verdict().Action; got != fusion.ActionRely {
		t.Errorf("verdict after stale result = %v, want rely", got)
	}
	if o.History().Len() != 0 {
		t.Errorf("history length = %d after stale result, want 0", o.History().Len())
	}
	if o.State() != StateIdle {
		t.Errorf("state = %v after reset, want idle", o.State())
	}
}
