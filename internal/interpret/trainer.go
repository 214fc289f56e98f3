package interpret

import (
	"encoding/json"
	"fmt"
)

// MotionSample is one recorded wrist trajectory for a motion sign.
type MotionSample struct {
	Type      string      `json:"type"`
	Path      []PathPoint `json:"path"`
	Timestamp int64       `json:"timestamp"`
}

// TrainPath averages recorded trajectory samples into a single
// template path. Paths of different lengths are resampled to the first
// sample's length before averaging.
func TrainPath(samples []json.RawMessage) ([]PathPoint, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	var allPaths [][]PathPoint
	for i, raw := range samples {
		var sample MotionSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		if len(sample.Path) < 2 {
			return nil, fmt.Errorf("sample %d has insufficient path points", i)
		}
		allPaths = append(allPaths, sample.Path)
	}

	targetLength := len(allPaths[0])
	resampled := make([][]PathPoint, len(allPaths))
	for i, path := range allPaths {
		resampled[i] = resamplePath(path, targetLength)
	}

	n := float64(len(resampled))
	averaged := make([]PathPoint, targetLength)
	for i := 0; i < targetLength; i++ {
		var sumX, sumY float64
		for _, path := range resampled {
			sumX += path[i].X
			sumY += path[i].Y
		}
		averaged[i] = PathPoint{
			X: sumX / n,
			Y: sumY / n,
			// Timestamps follow the first recording.
			Timestamp: resampled[0][i].Timestamp,
		}
	}

	return averaged, nil
}

// resamplePath stretches or compresses a path to exactly targetLength
// points using linear interpolation.
func resamplePath(path []PathPoint, targetLength int) []PathPoint {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 || targetLength <= 1 {
		return []PathPoint{path[0]}
	}

	result := make([]PathPoint, targetLength)
	for i := 0; i < targetLength; i++ {
		t := float64(i) / float64(targetLength-1)
		pos := t * float64(len(path)-1)

		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}
		frac := pos - float64(idx)

		p1 := path[idx]
		p2 := path[idx+1]
		result[i] = PathPoint{
			X:         p1.X + frac*(p2.X-p1.X),
			Y:         p1.Y + frac*(p2.Y-p1.Y),
			Timestamp: p1.Timestamp + int64(frac*float64(p2.Timestamp-p1.Timestamp)),
		}
	}

	return result
}
