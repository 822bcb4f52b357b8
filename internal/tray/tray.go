// Package tray provides a system tray interface for handcontrol.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handcontrol/internal/app"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onReset  func()
	onQuit   func()
	enabled  bool
	status   app.Status
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray with hand control disabled.
func New() *Tray {
	return &Tray{
		status: app.StatusIdle,
	}
}

// OnToggle sets the callback function to be called when hand control is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the page menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnResetPositions sets the callback function to be called when stored positions should be forgotten.
func (t *Tray) OnResetPositions(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops a running tray.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Hand Control")
	systray.SetTooltip("Hand Control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Turn hand control on or off")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Hand control status")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Page...", "Open the page in a browser")
	menuReset := systray.AddMenuItem("Reset Panel Positions", "Forget where panels were dropped")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Hand Control")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.call(t.onOpenFn())
			case <-menuReset.ClickedCh:
				t.call(t.onResetFn())
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Hand Control On"
	}
	return "○ Hand Control Off"
}

func statusTitle(s app.Status) string {
	return "Status: " + string(s)
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) onOpenFn() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onOpen
}

func (t *Tray) onResetFn() func() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onReset
}

func (t *Tray) call(fn func()) {
	if fn != nil {
		fn()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line. A session that stops on its own
// (unavailable camera or estimator) switches the toggle back off.
func (t *Tray) SetStatus(s app.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = s
	if s == app.StatusUnavailable || s == app.StatusIdle {
		t.enabled = false
	}
	if s == app.StatusLoading || s == app.StatusCalibrating || s == app.StatusActive {
		t.enabled = true
	}

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(s))
	}
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.enabled))
	}
}

// Status returns the last status shown.
func (t *Tray) Status() app.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
