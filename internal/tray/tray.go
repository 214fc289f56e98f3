// Package tray provides the system tray interface for the Mudra sign translation pipeline.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuTranslation *systray.MenuItem
}

// New creates a new Tray instance with translation enabled by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when translation is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback function to be called when the dashboard menu item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// SetLastTranslation updates the last-translation menu entry.
func (t *Tray) SetLastTranslation(text string) {
	t.mu.RLock()
	item := t.menuTranslation
	t.mu.RUnlock()
	if item != nil {
		item.SetTitle("Last: " + text)
	}
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Sign Translation")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle sign translation")
	systray.AddSeparator()

	t.menuTranslation = systray.AddMenuItem("Last: none", "Last translation")
	t.menuTranslation.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open dashboard in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.toggle()
			case <-menuDashboard.ClickedCh:
				t.mu.RLock()
				fn := t.onDashboard
				t.mu.RUnlock()
				if fn != nil {
					fn()
				}
			case <-menuQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()
}

// toggle flips the enabled state and updates the menu title.
func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	fn := t.onToggle
	item := t.menuToggle
	t.mu.Unlock()

	if item != nil {
		if enabled {
			item.SetTitle("● Enabled")
		} else {
			item.SetTitle("○ Disabled")
		}
	}

	if fn != nil {
		fn(enabled)
	}
}

// onExit is called when the tray application quits.
func (t *Tray) onExit() {
	t.mu.RLock()
	fn := t.onQuit
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
