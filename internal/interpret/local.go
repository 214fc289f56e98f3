package interpret

import (
	"context"
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// PathPoint is one point of a wrist trajectory in the image plane.
type PathPoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// PathTemplate is one registered motion sign the local interpreter
// matches completed segments against.
type PathTemplate struct {
	Label     string
	Path      []PathPoint
	Tolerance float64
}

// Local interprets a completed segment in-process by dynamic time
// warping the segment's wrist trajectory against registered motion
// templates. It stands in for the external interpreter helper when
// none is configured and a trained vocabulary exists.
type Local struct {
	templates []PathTemplate
}

// NewLocal creates a Local interpreter over the given templates.
func NewLocal(templates []PathTemplate) *Local {
	return &Local{templates: templates}
}

// Interpret matches the segment's wrist trajectory against every
// template and returns the best match as the translation. A segment
// that matches nothing completes with the fallback result, never an
// error.
func (l *Local) Interpret(ctx context.Context, landmarks []detector.HandFrame, images [][]byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	path := wristPath(landmarks)
	if len(path) < 2 {
		return Fallback(), nil
	}
	input := normalizePath(path)

	var (
		bestLabel string
		bestScore float64
	)
	for _, t := range l.templates {
		if len(t.Path) == 0 {
			continue
		}

		distance := DTWDistance(input, normalizePath(t.Path))
		if math.IsInf(distance, 1) || distance > t.Tolerance {
			continue
		}

		score := 1.0 / (1.0 + distance)
		if score > bestScore {
			bestLabel = t.Label
			bestScore = score
		}
	}

	if bestLabel == "" {
		return Fallback(), nil
	}
	return Result{Text: bestLabel, Confidence: bestScore}, nil
}

// wristPath extracts the first hand's wrist position from each frame.
// Frames without hands are skipped; a sign's trajectory survives brief
// tracking gaps.
func wristPath(frames []detector.HandFrame) []PathPoint {
	var path []PathPoint
	for i := range frames {
		if frames[i].Empty() {
			continue
		}
		wrist := frames[i].Hands[0].Points[detector.Wrist]
		path = append(path, PathPoint{
			X:         wrist.X,
			Y:         wrist.Y,
			Timestamp: frames[i].Timestamp.UnixMilli(),
		})
	}
	return path
}

// DTWDistance calculates the dynamic time warping distance between two
// paths, normalized by the longer path's length. Either path being
// empty yields +Inf.
func DTWDistance(path1, path2 []PathPoint) float64 {
	n := len(path1)
	m := len(path2)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := pointDistance(path1[i-1], path2[j-1])
			dtw[i][j] = cost + min(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw[n][m] / float64(max(n, m))
}

// pointDistance is the image-plane distance between two path points.
func pointDistance(a, b PathPoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// normalizePath scales the path coordinates to the 0-1 range so that
// the same motion matches regardless of where in the frame it was
// performed and how large it was. Timestamps are preserved.
func normalizePath(path []PathPoint) []PathPoint {
	n := len(path)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []PathPoint{{Timestamp: path[0].Timestamp}}
	}

	minX, maxX := path[0].X, path[0].X
	minY, maxY := path[0].Y, path[0].Y
	for _, p := range path {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY

	normalized := make([]PathPoint, n)
	for i, p := range path {
		var x, y float64
		if rangeX > 0 {
			x = (p.X - minX) / rangeX
		}
		if rangeY > 0 {
			y = (p.Y - minY) / rangeY
		}
		normalized[i] = PathPoint{X: x, Y: y, Timestamp: p.Timestamp}
	}

	return normalized
}
