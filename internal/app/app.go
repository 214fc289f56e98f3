// Package app wires the capture, analysis and segmentation components
// into the running Mudra pipeline.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
	"github.com/ayusman/mudra/internal/gate"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/motion"
	"github.com/ayusman/mudra/internal/segment"
	"github.com/ayusman/mudra/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while no sign is in progress.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a segment is being tracked.
	ActiveFPS = 25
	// IdleTimeout is how long the pipeline stays at ActiveFPS after
	// the orchestrator returns to idle.
	IdleTimeout = 2 * time.Second
)

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store
	CameraID        int
	Profile         string
	InterpreterPath string
	Motion          motion.Config
	Segment         segment.Config
}

// App is the main application that runs the sign translation pipeline
// for one camera stream.
type App struct {
	config       Config
	camera       capture.Camera
	detector     detector.Detector
	analyzer     *motion.Analyzer
	orchestrator *segment.Orchestrator

	onEvent func(segment.Event)
	enabled bool
	mu      sync.RWMutex
	stopCh  chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionCfg := config.Motion
	segmentCfg := config.Segment

	if config.Store != nil && config.Profile != "" {
		if p, err := config.Store.Profiles().GetByName(config.Profile); err == nil {
			motionCfg, segmentCfg = profileConfigs(p)
			log.Printf("Using tuning profile %q", p.Name)
		} else {
			log.Printf("Profile %q not available (%v), using defaults", config.Profile, err)
		}
	}

	analyzer := motion.NewAnalyzer(motionCfg)

	a := &App{
		config:   config,
		camera:   capture.NewCamera(config.CameraID),
		analyzer: analyzer,
		enabled:  false,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	classifier := a.loadClassifier()
	interpreter := a.loadInterpreter(segmentCfg.InterpretTimeout)

	a.orchestrator = segment.New(
		segmentCfg,
		analyzer,
		gate.New(0, 0, 0),
		fusion.NewEngine(),
		classifier,
		interpreter,
	)

	return a
}

// profileConfigs maps a stored tuning profile onto the analyzer and
// segmentation configs.
func profileConfigs(p *store.Profile) (motion.Config, segment.Config) {
	motionCfg := motion.DefaultConfig()
	motionCfg.Alpha = p.Alpha
	motionCfg.MotionThreshold = p.MotionThreshold
	motionCfg.MergeDistance = p.MergeDistance
	motionCfg.DepthWeight = p.DepthWeight
	motionCfg.MaxAcceleration = p.MaxAcceleration

	segmentCfg := segment.DefaultConfig()
	if p.SilenceMs > 0 {
		segmentCfg.SilenceThreshold = time.Duration(p.SilenceMs) * time.Millisecond
	}

	return motionCfg, segmentCfg
}

// loadClassifier builds the local template classifier from the stored
// sign vocabulary. Returns nil when no vocabulary exists; the
// orchestrator then relies on the interpreter alone.
func (a *App) loadClassifier() classify.Classifier {
	if a.config.Store == nil {
		return nil
	}

	signs, err := a.config.Store.Signs().List()
	if err != nil {
		log.Printf("Failed to load sign vocabulary: %v", err)
		return nil
	}

	var templates []classify.Template
	for _, s := range signs {
		landmarks, err := a.config.Store.Signs().GetLandmarks(s.ID)
		if err != nil {
			log.Printf("Failed to load landmarks for %s: %v", s.Label, err)
			continue
		}
		if len(landmarks) != detector.NumLandmarks {
			continue
		}

		points := make([]detector.Point3D, len(landmarks))
		for i, l := range landmarks {
			points[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
		}
		templates = append(templates, classify.Template{
			Label:     s.Label,
			Points:    points,
			Tolerance: s.Tolerance,
		})
	}

	if len(templates) == 0 {
		return nil
	}

	log.Printf("Loaded %d signs into the local classifier", len(templates))
	return classify.NewLocal(templates)
}

// loadInterpreter picks the segment interpreter. An explicitly
// configured helper binary wins; otherwise the trained motion
// trajectories in the store back an in-process matcher. Returns nil
// when neither exists, which completes every segment with the
// fallback result.
func (a *App) loadInterpreter(timeout time.Duration) interpret.Interpreter {
	if a.config.InterpreterPath != "" {
		return interpret.NewExec(a.config.InterpreterPath, timeout)
	}
	if a.config.Store == nil {
		return nil
	}

	signs, err := a.config.Store.Signs().List()
	if err != nil {
		log.Printf("Failed to load sign vocabulary: %v", err)
		return nil
	}

	var templates []interpret.PathTemplate
	for _, s := range signs {
		path, err := a.config.Store.Signs().GetPath(s.ID)
		if err != nil {
			log.Printf("Failed to load trajectory for %s: %v", s.Label, err)
			continue
		}
		if len(path) < 2 {
			continue
		}

		points := make([]interpret.PathPoint, len(path))
		for i, p := range path {
			points[i] = interpret.PathPoint{X: p.X, Y: p.Y, Timestamp: p.TimestampMs}
		}
		templates = append(templates, interpret.PathTemplate{
			Label:     s.Label,
			Path:      points,
			Tolerance: s.Tolerance,
		})
	}

	if len(templates) == 0 {
		return nil
	}

	log.Printf("Loaded %d motion signs into the local interpreter", len(templates))
	return interpret.NewLocal(templates)
}

// OnEvent registers the callback invoked with every segmentation event.
func (a *App) OnEvent(fn func(segment.Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEvent = fn
}

// SetEnabled enables or disables translation.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether translation is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Start begins the translation pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline()

	log.Println("Translation pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	a.orchestrator.Reset()

	log.Println("Translation pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Orchestrator returns the segmentation orchestrator.
func (a *App) Orchestrator() *segment.Orchestrator {
	return a.orchestrator
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

func (a *App) publish(ev segment.Event) {
	a.mu.RLock()
	fn := a.onEvent
	a.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}
