// Package tray provides the system tray menu for pinchviz.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/pinchviz/internal/app"
	"github.com/ayusman/pinchviz/internal/draw"
)

// lastMax caps the notification text shown in the menu.
const lastMax = 40

// Tray is the system tray menu: a tracking toggle, the tracking status, the
// last notification, a viewer shortcut and quit. It receives render loop
// events as an app.Notifier.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	last     string
	tracking app.Tracking
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuTracking *systray.MenuItem
	menuLast     *systray.MenuItem
}

// New creates a new Tray instance with tracking enabled.
func New() *Tray {
	return &Tray{
		enabled:  true,
		tracking: app.TrackingLoading,
	}
}

// OnToggle sets the callback function to be called when tracking is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback function to be called when the viewer menu item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
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

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("pinchviz")
	systray.SetTooltip("pinchviz: pinch tables into charts")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	t.menuTracking = systray.AddMenuItem(trackingTitle(t.tracking), "Hand tracking status")
	t.menuTracking.Disable()
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last notification")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open viewer...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit pinchviz")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

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

// handleOpen handles the viewer menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
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

// Notify records toasts and tracking changes in the menu.
func (t *Tray) Notify(e app.Event) {
	switch {
	case e.Type == app.EventToast && e.Toast != nil:
		t.SetLast(e.Toast.Text)
	case e.Type == app.EventState && e.State != nil:
		t.setTracking(e.State.Tracking)
	}
}

// SetLast updates the last notification display in the menu.
func (t *Tray) SetLast(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = text
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(text))
	}
}

// Last returns the last notification text.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *Tray) setTracking(tr app.Tracking) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tr == t.tracking {
		return
	}
	t.tracking = tr
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(tr))
	}
}

// Tracking returns the last reported tracking status.
func (t *Tray) Tracking() app.Tracking {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking enabled"
	}
	return "○ Tracking paused"
}

func trackingTitle(tr app.Tracking) string {
	return "Hand tracking: " + string(tr)
}

func lastTitle(text string) string {
	if text == "" {
		return "Last: none"
	}
	return "Last: " + draw.Truncate(text, lastMax)
}
