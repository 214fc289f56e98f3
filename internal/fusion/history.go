// Package fusion reconciles external per-frame sign classifications
// against their own recent history before they are trusted downstream.
package fusion

import "time"

// Observation is one successful external classification.
type Observation struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"` // in [0,1]
	Timestamp  time.Time `json:"timestamp"`
}

// History is a bounded, ordered log of observations, oldest first.
// All operations are value-in/value-out; the backing slice is copied on
// append so older History values stay valid.
type History struct {
	entries  []Observation
	capacity int
}

// NewHistory creates a History holding at most capacity observations.
func NewHistory(capacity int) History {
	if capacity < 1 {
		capacity = 1
	}
	return History{capacity: capacity}
}

// Len returns the number of stored observations.
func (h History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the stored observations, oldest first.
func (h History) Entries() []Observation {
	out := make([]Observation, len(h.entries))
	copy(out, h.entries)
	return out
}

// Append returns a new History with obs appended, trimmed from the
// front to capacity. Strict FIFO: the oldest entry is dropped first.
func (h History) Append(obs Observation) History {
	entries := make([]Observation, 0, len(h.entries)+1)
	entries = append(entries, h.entries...)
	entries = append(entries, obs)
	for len(entries) > h.capacity {
		entries = entries[1:]
	}
	return History{entries: entries, capacity: h.capacity}
}

// IsTemporallyConsistent reports whether the current label agrees with
// the requiredCount-1 most recent prior observations. It is false when
// the history is too short to judge; requiredCount of 1 needs no prior
// agreement and is always true.
func (h History) IsTemporallyConsistent(label string, requiredCount int) bool {
	need := requiredCount - 1
	if need <= 0 {
		return true
	}
	if len(h.entries) < need {
		return false
	}
	for _, e := range h.entries[len(h.entries)-need:] {
		if e.Label != label {
			return false
		}
	}
	return true
}

// AverageConfidence returns the mean confidence over the most recent
// windowSize observations (all of them if fewer exist), 0 when empty.
func (h History) AverageConfidence(windowSize int) float64 {
	window := h.window(windowSize)
	if len(window) == 0 {
		return 0
	}
	var total float64
	for _, e := range window {
		total += e.Confidence
	}
	return total / float64(len(window))
}

// MostCommonLabel returns the plurality label over the most recent
// windowSize observations. Ties resolve to the label seen first while
// scanning the window in chronological order. ok is false when the
// history is empty.
func (h History) MostCommonLabel(windowSize int) (label string, ok bool) {
	window := h.window(windowSize)
	if len(window) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(window))
	var best string
	bestCount := 0
	for _, e := range window {
		counts[e.Label]++
		if counts[e.Label] > bestCount {
			best = e.Label
			bestCount = counts[e.Label]
		}
	}
	return best, true
}

func (h History) window(size int) []Observation {
	if size <= 0 || size > len(h.entries) {
		return h.entries
	}
	return h.entries[len(h.entries)-size:]
}
