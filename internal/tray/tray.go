// Package tray provides the system tray menu: pause or resume volume control,
// show the current status and quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	status   string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray instance with control enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		status:  "starting",
	}
}

// OnToggle sets the callback function to be called when control is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// It blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Pinchmix")
	systray.SetTooltip("Pinchmix gesture volume control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume volume control")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Current control state")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Pinchmix")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the enabled state and notifies the callback.
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

// SetStatus updates the status line in the menu.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status == t.status {
		return
	}
	t.status = status

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(status))
	}
}

// Status returns the last status set.
func (t *Tray) Status() string {
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

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Control enabled"
	}
	return "○ Control paused"
}

func statusTitle(status string) string {
	if status == "" {
		return "Status: idle"
	}
	return "Status: " + status
}
