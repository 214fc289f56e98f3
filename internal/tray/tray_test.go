package tray

import "testing"

func TestSetLastTranslationBeforeReady(t *testing.T) {
	tr := New()

	// The menu only exists once the tray loop runs; updates arriving
	// before that are dropped rather than panicking.
	tr.SetLastTranslation("hello")
}

func TestToggleInvokesCallback(t *testing.T) {
	tr := New()

	var got []bool
	tr.OnToggle(func(enabled bool) {
		got = append(got, enabled)
	})

	tr.toggle()
	tr.toggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
}
