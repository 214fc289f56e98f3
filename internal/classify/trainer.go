package classify

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// PoseSample is one recorded hand pose for a static sign.
type PoseSample struct {
	Type      string             `json:"type"`
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

// TrainPose averages recorded pose samples into a single reference
// pose. Each sample is normalized to the wrist-relative frame the
// classifier matches in before averaging, so raw captures and
// pre-normalized recordings train to the same template.
func TrainPose(samples []json.RawMessage) ([]detector.Point3D, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	normalized := make([]*detector.HandLandmarks, 0, len(samples))
	for i, raw := range samples {
		var sample PoseSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Landmarks) != detector.NumLandmarks {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d", i, len(sample.Landmarks), detector.NumLandmarks)
		}

		var hand detector.HandLandmarks
		copy(hand.Points[:], sample.Landmarks)
		normalized = append(normalized, hand.Normalize())
	}

	averaged := make([]detector.Point3D, detector.NumLandmarks)
	n := float64(len(normalized))

	for i := 0; i < detector.NumLandmarks; i++ {
		var sumX, sumY, sumZ float64
		for _, hand := range normalized {
			sumX += hand.Points[i].X
			sumY += hand.Points[i].Y
			sumZ += hand.Points[i].Z
		}
		averaged[i] = detector.Point3D{
			X: sumX / n,
			Y: sumY / n,
			Z: sumZ / n,
		}
	}

	return averaged, nil
}
