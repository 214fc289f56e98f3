package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/segment"
)

// runPipeline is the main loop that feeds camera frames through hand
// detection into the segmentation orchestrator.
//
// The camera idles at a low frame rate until a segment starts, runs at
// the active rate while one is in progress, and drops back after the
// orchestrator has been idle for a while.
func (a *App) runPipeline() {
	a.mu.RLock()
	stopCh := a.stopCh
	a.mu.RUnlock()

	activeMode := false
	lastActive := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				// The orchestrator treats a missing frame as a
				// tracking dropout, not a gesture end.
				ev := a.orchestrator.Tick(nil, nil)
				a.publish(ev)
				continue
			}

			hands, err := a.Detector().Detect(frame)
			if err != nil {
				log.Printf("Error detecting hands: %v", err)
				hands = nil
			}

			handFrame := &detector.HandFrame{
				Hands:     hands,
				Timestamp: time.Now(),
			}

			ev := a.orchestrator.Tick(handFrame, jpegSupplier(frame))
			frame.Close()

			a.publish(ev)

			if ev.Result != nil {
				log.Printf("Segment %s translated: %q (%.2f)", ev.SegmentID, ev.Result.Text, ev.Result.Confidence)
			}

			// Frame rate switching
			if ev.State != segment.StateIdle {
				lastActive = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastActive) > IdleTimeout {
				activeMode = false
				a.camera.SetFPS(IdleFPS)
				frameInterval = time.Second / time.Duration(IdleFPS)
				ticker.Reset(frameInterval)
				log.Println("Switched to idle mode")
			}
		}
	}
}

// jpegSupplier lazily encodes the frame as JPEG at most once. The
// orchestrator only asks for image bytes on ticks that sample into the
// image buffer or feed the classifier.
func jpegSupplier(frame *gocv.Mat) func() []byte {
	var encoded []byte
	var done bool
	return func() []byte {
		if done {
			return encoded
		}
		done = true

		buf, err := gocv.IMEncode(".jpg", *frame)
		if err != nil {
			log.Printf("Error encoding frame: %v", err)
			return nil
		}
		defer buf.Close()

		encoded = make([]byte, buf.Len())
		copy(encoded, buf.GetBytes())
		return encoded
	}
}
