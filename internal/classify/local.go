package classify

import (
	"context"
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fusion"
)

// Template is one registered sign pose the local classifier matches
// against. Points are wrist-relative normalized landmarks.
type Template struct {
	Label     string
	Points    []detector.Point3D
	Tolerance float64
}

// Local matches hand landmarks against sign templates in-process. It
// stands in for the remote per-frame classifier when no network
// backend is configured, and shares its contract: one max-confidence
// observation per sample, or none.
type Local struct {
	templates []Template
}

// NewLocal creates a Local classifier over the given templates.
func NewLocal(templates []Template) *Local {
	return &Local{templates: templates}
}

// Classify returns the best template match across all hands in the
// sample, or nil when nothing falls within tolerance.
func (l *Local) Classify(ctx context.Context, sample Sample) (*fusion.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var best *fusion.Observation
	for i := range sample.Hands {
		normalized := sample.Hands[i].Normalize()
		if normalized == nil {
			continue
		}
		input := normalized.Points[:]

		for _, t := range l.templates {
			dist := landmarkDistance(input, t.Points)
			if dist > t.Tolerance {
				continue
			}
			score := 1.0 / (1.0 + dist)
			if best == nil || score > best.Confidence {
				best = &fusion.Observation{
					Label:      t.Label,
					Confidence: score,
					Timestamp:  sample.Timestamp,
				}
			}
		}
	}

	return best, nil
}

// Close is a no-op for the local classifier.
func (l *Local) Close() error {
	return nil
}

// landmarkDistance sums Euclidean distances between corresponding
// points of the two landmark sets.
func landmarkDistance(a, b []detector.Point3D) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var total float64
	for i := 0; i < n; i++ {
		dx := a[i].X - b[i].X
		dy := a[i].Y - b[i].Y
		dz := a[i].Z - b[i].Z
		total += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}

	return total
}
