package classify

import (
	"context"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
)

func templateFor(label string, hand detector.HandLandmarks, tolerance float64) Template {
	n := hand.Normalize()
	return Template{Label: label, Points: n.Points[:], Tolerance: tolerance}
}

func sampleOf(hands ...detector.HandLandmarks) Sample {
	return Sample{Hands: hands, Timestamp: time.Unix(1700000000, 0)}
}

func TestLocal_MatchesExactPose(t *testing.T) {
	thumbsUp := detector.ThumbsUpLandmarks()
	l := NewLocal([]Template{templateFor("THUMBS_UP", thumbsUp, 0.15)})

	obs, err := l.Classify(context.Background(), sampleOf(thumbsUp))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs == nil {
		t.Fatal("no observation for an exact template match")
	}
	if obs.Label != "THUMBS_UP" {
		t.Errorf("label = %q, want THUMBS_UP", obs.Label)
	}
	if obs.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for zero distance", obs.Confidence)
	}
	if obs.Timestamp != time.Unix(1700000000, 0) {
		t.Errorf("timestamp = %v, want the sample timestamp", obs.Timestamp)
	}
}

func TestLocal_MatchIsTranslationInvariant(t *testing.T) {
	thumbsUp := detector.ThumbsUpLandmarks()
	l := NewLocal([]Template{templateFor("THUMBS_UP", thumbsUp, 0.15)})

	moved := detector.Translated(thumbsUp, 0.2, -0.1, 0)
	obs, err := l.Classify(context.Background(), sampleOf(moved))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs == nil || obs.Label != "THUMBS_UP" {
		t.Fatalf("obs = %+v, want THUMBS_UP match for a translated hand", obs)
	}
}

func TestLocal_NoMatchOutsideTolerance(t *testing.T) {
	l := NewLocal([]Template{templateFor("THUMBS_UP", detector.ThumbsUpLandmarks(), 0.15)})

	obs, err := l.Classify(context.Background(), sampleOf(detector.OpenPalmLandmarks()))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs != nil {
		t.Errorf("obs = %+v, want nil for a pose outside tolerance", obs)
	}
}

func TestLocal_PicksBestAcrossTemplates(t *testing.T) {
	thumbsUp := detector.ThumbsUpLandmarks()
	openPalm := detector.OpenPalmLandmarks()
	l := NewLocal([]Template{
		// Generous tolerances so both templates are candidates.
		templateFor("THUMBS_UP", thumbsUp, 100),
		templateFor("OPEN_PALM", openPalm, 100),
	})

	obs, err := l.Classify(context.Background(), sampleOf(openPalm))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs == nil || obs.Label != "OPEN_PALM" {
		t.Fatalf("obs = %+v, want the closer OPEN_PALM template", obs)
	}
}

func TestLocal_EmptySample(t *testing.T) {
	l := NewLocal([]Template{templateFor("THUMBS_UP", detector.ThumbsUpLandmarks(), 0.15)})

	obs, err := l.Classify(context.Background(), Sample{})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs != nil {
		t.Errorf("obs = %+v for an empty sample, want nil", obs)
	}
}

func TestLocal_CancelledContext(t *testing.T) {
	l := NewLocal(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Classify(ctx, Sample{}); err == nil {
		t.Error("Classify with cancelled context returned nil error")
	}
}

func TestMock_StampsSampleTimestamp(t *testing.T) {
	m := NewMock()
	m.SetObservation(&fusion.Observation{Label: "HELLO", Confidence: 0.9})

	s := sampleOf(detector.OpenPalmLandmarks())
	obs, err := m.Classify(context.Background(), s)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if obs.Timestamp != s.Timestamp {
		t.Errorf("timestamp = %v, want %v", obs.Timestamp, s.Timestamp)
	}
	if m.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", m.Calls())
	}
}
