// Package ui provides the graphical user interface for the Bitmask client.
// This file contains the system tray indicator.
package ui

import (
	"sync"

	"fyne.io/systray"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/statuspanel"
)

// TrayIndicator manages the system tray icon and menu.
// It implements statuspanel.Tray.
type TrayIndicator struct {
	app *Application

	mu         sync.Mutex
	ready      bool
	icon       []byte
	tooltip    string
	statusText string

	statusItem *systray.MenuItem
	toggleItem *systray.MenuItem
	fetchItem  *systray.MenuItem
}

var _ statuspanel.Tray = (*TrayIndicator)(nil)

// NewTrayIndicator creates a new system tray indicator.
func NewTrayIndicator(app *Application) *TrayIndicator {
	return &TrayIndicator{
		app:     app,
		tooltip: common.AppName,
	}
}

// Run starts the system tray indicator.
// This should be called from a goroutine as it blocks.
func (t *TrayIndicator) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the systray is ready.
func (t *TrayIndicator) onReady() {
	systray.SetTitle(common.AppName)

	t.statusItem = systray.AddMenuItem("", "Encrypted Internet status")
	t.statusItem.Disable()

	t.toggleItem = systray.AddMenuItem("Turn Encrypted Internet On/Off", "Start or stop the encrypted tunnel")
	go func() {
		for range t.toggleItem.ClickedCh {
			glib.IdleAdd(func() {
				if t.app.panel != nil {
					t.app.panel.Toggle()
				}
			})
		}
	}()

	systray.AddSeparator()

	t.fetchItem = systray.AddMenuItem("Check Mail Now", "Fetch new messages from the provider")
	go func() {
		for range t.fetchItem.ClickedCh {
			t.app.services.Mail.FetchNow()
		}
	}()

	systray.AddSeparator()

	showItem := systray.AddMenuItem("Open "+common.AppName, "Show main window")
	go func() {
		for range showItem.ClickedCh {
			glib.IdleAdd(t.app.showWindow)
		}
	}()

	quitItem := systray.AddMenuItem("Quit", "Close "+common.AppName)
	go func() {
		for range quitItem.ClickedCh {
			glib.IdleAdd(t.app.Quit)
		}
	}()

	t.mu.Lock()
	t.ready = true
	icon, tooltip, statusText := t.icon, t.tooltip, t.statusText
	t.mu.Unlock()

	if icon == nil {
		icon = IconBytes(statuspanel.IconError, statuspanel.VariantLight, common.TrayIconSize)
	}
	systray.SetIcon(icon)
	systray.SetTooltip(tooltip)
	t.statusItem.SetTitle(statusText)
}

// onExit is called when the systray is about to exit.
func (t *TrayIndicator) onExit() {
	common.LogInfo("Tray indicator cleanup completed")
}

// SetIcon shows icon in variant v.
func (t *TrayIndicator) SetIcon(icon statuspanel.Icon, v statuspanel.Variant) {
	data := IconBytes(icon, v, common.TrayIconSize)

	t.mu.Lock()
	t.icon = data
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.SetIcon(data)
	}
}

// SetTooltip sets the tray tooltip.
func (t *TrayIndicator) SetTooltip(text string) {
	t.mu.Lock()
	t.tooltip = text
	ready := t.ready
	t.mu.Unlock()

	if ready {
		systray.SetTooltip(text)
	}
}

// SetStatusText sets the status entry of the tray menu.
func (t *TrayIndicator) SetStatusText(text string) {
	t.mu.Lock()
	t.statusText = text
	ready := t.ready
	t.mu.Unlock()

	if ready {
		t.statusItem.SetTitle(text)
	}
}
