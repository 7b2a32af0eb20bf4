// Package tray provides the operator system tray interface for the
// ProjecTo exhibit daemon.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/projecto/internal/stage"
)

// Tray represents the operator tray application.
type Tray struct {
	onPause func(paused bool)
	onPanel func()
	onStop  func()
	onQuit  func()
	paused  bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuPause *systray.MenuItem
	menuStage *systray.MenuItem
}

// New creates a new Tray instance, running (not paused) by default.
func New() *Tray {
	return &Tray{}
}

// OnPause sets the callback called when visitor detection is paused or resumed.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnPanel sets the callback called when the operator panel menu item is clicked.
func (t *Tray) OnPanel(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPanel = fn
}

// OnStop sets the callback called when the emergency stop item is clicked.
func (t *Tray) OnStop(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStop = fn
}

// OnQuit sets the callback called when the quit menu item is clicked.
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

// Quit tears the tray down from outside, e.g. on daemon shutdown.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("ProjecTo")
	systray.SetTooltip("ProjecTo Exhibit Controller")

	t.menuStage = systray.AddMenuItem("Stage: rest", "Current interaction stage")
	t.menuStage.Disable()
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem("● Detecting", "Pause visitor detection")
	systray.AddSeparator()

	menuStop := systray.AddMenuItem("Emergency Stop", "Park and detorque the arm")
	systray.AddSeparator()

	menuPanel := systray.AddMenuItem("Open Operator Panel...", "Open the panel in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit ProjecTo")

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.handlePause()
			case <-menuStop.ClickedCh:
				t.handleStop()
			case <-menuPanel.ClickedCh:
				t.handlePanel()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handlePause handles the pause menu item click.
func (t *Tray) handlePause() {
	t.mu.Lock()
	t.paused = !t.paused
	paused := t.paused

	if paused {
		t.menuPause.SetTitle("○ Paused")
	} else {
		t.menuPause.SetTitle("● Detecting")
	}

	callback := t.onPause
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// handleStop handles the emergency stop menu item click.
func (t *Tray) handleStop() {
	t.mu.RLock()
	callback := t.onStop
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handlePanel handles the operator panel menu item click.
func (t *Tray) handlePanel() {
	t.mu.RLock()
	callback := t.onPanel
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

// StageChanged updates the stage display; implements stage.Notifier.
func (t *Tray) StageChanged(_, next stage.State) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStage != nil {
		t.menuStage.SetTitle("Stage: " + next.String())
	}
}

// ActionFeedback implements stage.Notifier. The tray shows no transient
// feedback, only the stage line.
func (t *Tray) ActionFeedback(string) {}

// IsPaused returns whether visitor detection is paused.
func (t *Tray) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}
