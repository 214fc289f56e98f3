package api

import (
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/classify"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/interpret"
	"github.com/ayusman/mudra/internal/store"
)

func newSamplesHandler(t *testing.T) (*SamplesHandler, *store.Store) {
	t.Helper()
	_, s := newTestHandler(t)
	return NewSamplesHandler(s), s
}

func createSign(t *testing.T, s *store.Store, label string, tolerance float64) *store.Sign {
	t.Helper()
	sign := &store.Sign{ID: uuid.NewString(), Label: label, Tolerance: tolerance}
	if err := s.Signs().Create(sign); err != nil {
		t.Fatalf("create sign: %v", err)
	}
	return sign
}

func rawPoseSample(t *testing.T, hand detector.HandLandmarks) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(classify.PoseSample{Type: SampleTypePose, Landmarks: hand.Points[:]})
	if err != nil {
		t.Fatalf("marshal pose sample: %v", err)
	}
	return raw
}

func rawMotionSample(t *testing.T, xs ...float64) json.RawMessage {
	t.Helper()
	path := make([]interpret.PathPoint, len(xs))
	for i, x := range xs {
		path[i] = interpret.PathPoint{X: x, Y: 0.5, Timestamp: int64(i) * 40}
	}
	raw, err := json.Marshal(interpret.MotionSample{Type: SampleTypeMotion, Path: path})
	if err != nil {
		t.Fatalf("marshal motion sample: %v", err)
	}
	return raw
}

func TestSamplesHandler_CreateAndList(t *testing.T) {
	h, s := newSamplesHandler(t)
	sign := createSign(t, s, "HELLO", 0.15)

	rec := doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/samples", createSamplesRequest{
		Samples: []json.RawMessage{
			rawPoseSample(t, detector.OpenPalmLandmarks()),
			rawPoseSample(t, detector.OpenPalmLandmarks()),
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/signs/"+sign.ID+"/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var listed listSamplesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Samples) != 2 {
		t.Fatalf("listed %d samples, want 2", len(listed.Samples))
	}
	if listed.Samples[0].SignID != sign.ID {
		t.Errorf("sample sign id = %q, want %q", listed.Samples[0].SignID, sign.ID)
	}
}

func TestSamplesHandler_CreateValidation(t *testing.T) {
	h, s := newSamplesHandler(t)
	sign := createSign(t, s, "HELLO", 0.15)

	rec := doJSON(t, h, http.MethodPost, "/api/signs/no-such-sign/samples", createSamplesRequest{
		Samples: []json.RawMessage{json.RawMessage(`{}`)},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown sign status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/samples", createSamplesRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/signs/"+sign.ID+"/samples", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("delete status = %d, want 405", rec.Code)
	}
}

func TestSamplesHandler_TrainPose(t *testing.T) {
	h, s := newSamplesHandler(t)
	sign := createSign(t, s, "HELLO", 0.15)

	hand := detector.OpenPalmLandmarks()
	rec := doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/samples", createSamplesRequest{
		Samples: []json.RawMessage{
			rawPoseSample(t, hand),
			rawPoseSample(t, detector.Translated(hand, 0.1, 0, 0)),
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/train", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var trained trainResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &trained); err != nil {
		t.Fatalf("decode train response: %v", err)
	}
	if trained.Type != SampleTypePose || trained.Points != detector.NumLandmarks {
		t.Errorf("train response = %+v, want a full pose template", trained)
	}

	landmarks, err := s.Signs().GetLandmarks(sign.ID)
	if err != nil {
		t.Fatalf("GetLandmarks: %v", err)
	}
	if len(landmarks) != detector.NumLandmarks {
		t.Errorf("stored %d landmarks, want %d", len(landmarks), detector.NumLandmarks)
	}
}

func TestSamplesHandler_TrainMotion(t *testing.T) {
	h, s := newSamplesHandler(t)
	sign := createSign(t, s, "WAVE", 0.3)

	rec := doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/samples", createSamplesRequest{
		Samples: []json.RawMessage{
			rawMotionSample(t, 0.2, 0.4, 0.6, 0.8),
			rawMotionSample(t, 0.2, 0.4, 0.6, 1.0),
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/train", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("train status = %d, want 200: %s", rec.Code, rec.Body)
	}

	path, err := s.Signs().GetPath(sign.ID)
	if err != nil {
		t.Fatalf("GetPath: %v", err)
	}
	if len(path) != 4 {
		t.Fatalf("stored %d path points, want 4", len(path))
	}
	if math.Abs(path[3].X-0.9) > 1e-9 {
		t.Errorf("final point x = %v, want the 0.9 average", path[3].X)
	}
}

func TestSamplesHandler_TrainWithoutSamples(t *testing.T) {
	h, s := newSamplesHandler(t)
	sign := createSign(t, s, "HELLO", 0.15)

	rec := doJSON(t, h, http.MethodPost, "/api/signs/"+sign.ID+"/train", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("train status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/signs/no-such-sign/train", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown sign train status = %d, want 404", rec.Code)
	}
}
