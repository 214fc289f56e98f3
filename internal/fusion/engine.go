package fusion

import (
	"fmt"
	"math"
)

// Default fusion thresholds.
const (
	// DefaultLowThreshold is the confidence below which an observation
	// is ignored outright (exclusive: exactly at threshold passes).
	DefaultLowThreshold = 0.5

	// DefaultHighThreshold is the confidence at or above which an
	// observation may be trusted outright (inclusive).
	DefaultHighThreshold = 0.85

	// DefaultTemporalWindow is how many consecutive agreeing
	// observations (including the current one) full trust requires.
	DefaultTemporalWindow = 3
)

// Action is the closed set of fusion outcomes.
type Action int

const (
	// ActionRely ignores the classifier for this tick and relies on
	// the downstream interpreter alone.
	ActionRely Action = iota

	// ActionHint passes the classification along as a hint without
	// overriding the interpreter.
	ActionHint

	// ActionUseDetected treats the classification as authoritative.
	ActionUseDetected
)

// String returns the action name for logs.
func (a Action) String() string {
	switch a {
	case ActionRely:
		return "rely"
	case ActionHint:
		return "hint"
	case ActionUseDetected:
		return "use_detected"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Verdict is the engine's decision for one tick. Label is set for
// ActionUseDetected, Text for ActionHint; Confidence accompanies both.
type Verdict struct {
	Action     Action  `json:"action"`
	Label      string  `json:"label,omitempty"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Rely is the zero verdict: ignore the classifier this tick.
func Rely() Verdict {
	return Verdict{Action: ActionRely}
}

// Engine decides how far to trust a single external classification.
//
// A high-confidence observation that disagrees with its own recent
// history is deliberately downgraded to a hint: one confident frame
// surrounded by disagreeing neighbors is more likely a transient
// misclassification than a genuine sign.
type Engine struct {
	LowThreshold   float64
	HighThreshold  float64
	TemporalWindow int
}

// NewEngine returns an Engine with the default thresholds.
func NewEngine() Engine {
	return Engine{
		LowThreshold:   DefaultLowThreshold,
		HighThreshold:  DefaultHighThreshold,
		TemporalWindow: DefaultTemporalWindow,
	}
}

// Fuse combines one observation (nil when the classifier produced
// nothing this tick) with the prior history and returns a verdict.
// The history must not yet include obs itself.
func (e Engine) Fuse(obs *Observation, history History) Verdict {
	if obs == nil || obs.Confidence < e.LowThreshold {
		return Rely()
	}

	if obs.Confidence >= e.HighThreshold &&
		history.IsTemporallyConsistent(obs.Label, e.TemporalWindow) {
		return Verdict{
			Action:     ActionUseDetected,
			Label:      obs.Label,
			Confidence: obs.Confidence,
		}
	}

	if obs.Confidence >= e.LowThreshold {
		return Verdict{
			Action:     ActionHint,
			Text:       formatHint(obs.Label, obs.Confidence),
			Confidence: obs.Confidence,
		}
	}

	// Unreachable after the first branch; kept explicit so the
	// decision tree reads complete.
	return Rely()
}

// formatHint renders the hint text shown to the interpreter, embedding
// the label and the rounded integer percentage.
func formatHint(label string, confidence float64) string {
	return fmt.Sprintf("detected %q (%d%% confidence)", label, int(math.Round(confidence*100)))
}
