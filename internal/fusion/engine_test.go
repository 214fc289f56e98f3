package fusion

import (
	"strings"
	"testing"
)

func historyOf(labels ...string) History {
	h := NewHistory(6)
	for _, l := range labels {
		h = h.Append(obs(l, 0.9))
	}
	return h
}

func TestEngine_Fuse(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		obs     *Observation
		history History
		want    Action
	}{
		{
			name:    "nil observation relies",
			obs:     nil,
			history: historyOf("HELLO", "HELLO"),
			want:    ActionRely,
		},
		{
			name:    "below low threshold relies",
			obs:     &Observation{Label: "HELLO", Confidence: 0.49},
			history: historyOf("HELLO", "HELLO"),
			want:    ActionRely,
		},
		{
			name:    "exactly low threshold hints",
			obs:     &Observation{Label: "HELLO", Confidence: 0.5},
			history: historyOf(),
			want:    ActionHint,
		},
		{
			name:    "mid confidence hints even when consistent",
			obs:     &Observation{Label: "HELLO", Confidence: 0.84},
			history: historyOf("HELLO", "HELLO"),
			want:    ActionHint,
		},
		{
			name:    "exactly high threshold and consistent is trusted",
			obs:     &Observation{Label: "HELLO", Confidence: 0.85},
			history: historyOf("HELLO", "HELLO"),
			want:    ActionUseDetected,
		},
		{
			name:    "high confidence but inconsistent hints",
			obs:     &Observation{Label: "HELLO", Confidence: 0.9},
			history: historyOf("WORLD", "WORLD"),
			want:    ActionHint,
		},
		{
			name:    "high confidence with empty history hints",
			obs:     &Observation{Label: "HELLO", Confidence: 0.95},
			history: historyOf(),
			want:    ActionHint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Fuse(tt.obs, tt.history)
			if got.Action != tt.want {
				t.Errorf("Fuse action = %v, want %v", got.Action, tt.want)
			}
		})
	}
}

func TestEngine_ConsecutiveAgreementBuildsTrust(t *testing.T) {
	e := NewEngine()
	h := NewHistory(6)
	current := &Observation{Label: "HELLO", Confidence: 0.9}

	// First sighting: no prior agreement, downgraded to a hint.
	if v := e.Fuse(current, h); v.Action != ActionHint {
		t.Fatalf("first sighting action = %v, want hint", v.Action)
	}
	h = h.Append(*current)

	// Second sighting: one prior agreement, still short of the window.
	if v := e.Fuse(current, h); v.Action != ActionHint {
		t.Fatalf("second sighting action = %v, want hint", v.Action)
	}
	h = h.Append(*current)

	// Third sighting: two agreeing priors complete the window.
	v := e.Fuse(current, h)
	if v.Action != ActionUseDetected {
		t.Fatalf("third sighting action = %v, want use_detected", v.Action)
	}
	if v.Label != "HELLO" || v.Confidence != 0.9 {
		t.Errorf("verdict = %+v, want label HELLO confidence 0.9", v)
	}
}

func TestEngine_HintText(t *testing.T) {
	e := NewEngine()

	v := e.Fuse(&Observation{Label: "HELLO", Confidence: 0.9}, historyOf("WORLD", "WORLD"))
	if v.Action != ActionHint {
		t.Fatalf("action = %v, want hint", v.Action)
	}
	if want := `detected "HELLO" (90% confidence)`; v.Text != want {
		t.Errorf("hint text = %q, want %q", v.Text, want)
	}
	if !strings.Contains(v.Text, "90%") {
		t.Errorf("hint text %q missing rounded percentage", v.Text)
	}
}

func TestEngine_Rely(t *testing.T) {
	v := Rely()
	if v.Action != ActionRely || v.Label != "" || v.Text != "" || v.Confidence != 0 {
		t.Errorf("Rely() = %+v, want zero verdict", v)
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionRely, "rely"},
		{ActionHint, "hint"},
		{ActionUseDetected, "use_detected"},
		{Action(99), "action(99)"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("Action(%d).String() = %q, want %q", int(tt.action), got, tt.want)
		}
	}
}
