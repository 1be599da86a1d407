package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/systray"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
	"github.com/yllada/bitmask-client/eip"
	"github.com/yllada/bitmask-client/services"
	"github.com/yllada/bitmask-client/statuspanel"
)

var log = common.NamedLogger("ui")

// idleScheduler runs panel work on the GTK main loop.
var idleScheduler = statuspanel.SchedulerFunc(func(fn func()) {
	glib.IdleAdd(fn)
})

// Application represents the main application
type Application struct {
	app      *gtk.Application
	window   *MainWindow
	panel    *statuspanel.Panel
	services *services.Services
	config   *config.Config
	version  string
	tray     *TrayIndicator
	notifier *Notifier

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApplication creates a new application over svc.
func NewApplication(appID, version string, svc *services.Services) *Application {
	app := gtk.NewApplication(appID, gio.ApplicationFlagsNone)
	ctx, cancel := context.WithCancel(context.Background())

	application := &Application{
		app:      app,
		services: svc,
		config:   svc.Config,
		version:  version,
		notifier: NewNotifier(),
		ctx:      ctx,
		cancel:   cancel,
	}

	app.ConnectActivate(application.onActivate)
	app.ConnectShutdown(func() {
		cancel()
		application.notifier.Close()
	})

	return application
}

// Run runs the application
func (a *Application) Run(args []string) int {
	return a.app.Run(args)
}

// onActivate is called when the application is activated
func (a *Application) onActivate() {
	if a.window != nil {
		a.showWindow()
		return
	}

	a.ApplyTheme(a.config.UI.Theme)
	a.setupAppIcon()
	LoadStyles()

	a.window = NewMainWindow(a)
	a.tray = NewTrayIndicator(a)

	a.panel = statuspanel.New(a.window.status, a.tray, idleScheduler, statuspanel.CurrentPlatform())
	a.window.status.Bind(a.panel)
	a.panel.SetProvider(a.config.EIP.Provider)
	a.panel.SetEIPStatus(statuspanel.StatusLabel(""), false)
	a.panel.SetEIPStatusIcon("")
	a.setupEIP()

	a.window.Show()
	go a.tray.Run()

	a.startMail()
}

// setupAppIcon adds the bundled icon directories to the icon theme.
func (a *Application) setupAppIcon() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	iconTheme := gtk.IconThemeGetForDisplay(display)
	if iconTheme == nil {
		return
	}

	if execPath, err := os.Executable(); err == nil {
		iconTheme.AddSearchPath(filepath.Join(filepath.Dir(execPath), "assets", "icons"))
	}
	if cwd, err := os.Getwd(); err == nil {
		iconTheme.AddSearchPath(filepath.Join(cwd, "assets", "icons"))
	}

	gtk.WindowSetDefaultIconName("bitmask")
}

// setupEIP connects the panel to the EIP manager. Manager callbacks run on
// monitor goroutines and are marshalled onto the main loop.
func (a *Application) setupEIP() {
	manager := a.services.EIP
	panel := a.panel

	panel.StartEIP.Connect(a.startEIP)
	panel.StopEIP.Connect(a.stopEIP)

	manager.SetOnStateChanged(func(data eip.Data) {
		glib.IdleAdd(func() {
			panel.UpdateVPNState(data)
			if data.Step() == eip.StatusConnected && a.config.UI.ShowNotifications {
				go NotifyEIPConnected(a.notifier, a.config.EIP.Provider)
			}
		})
	})
	manager.SetOnStatusChanged(func(data eip.Data) {
		glib.IdleAdd(func() {
			panel.UpdateVPNStatus(data)
		})
	})
	manager.SetOnStopped(func(err error) {
		glib.IdleAdd(func() {
			panel.EIPStopped()
			panel.SetStartStopEnabled(true)
			panel.SetEIPStatus(statuspanel.StatusLabel(""), false)
			panel.SetEIPStatusIcon("")
			if err != nil {
				panel.SetGlobalStatus(fmt.Sprintf("Encrypted Internet stopped: %v", err), true)
			}
		})
		if a.config.UI.ShowNotifications {
			NotifyEIPDisconnected(a.notifier)
		}
	})

	if a.config.EIP.ConfigPath == "" {
		panel.SetGlobalStatus("No Encrypted Internet configuration set", true)
		return
	}
	panel.SetStartStopEnabled(true)
}

// startEIP launches OpenVPN off the main loop.
func (a *Application) startEIP() {
	log.Info("Starting Encrypted Internet")
	a.panel.EIPPreUp()

	go func() {
		err := a.services.EIP.Start(a.ctx)
		glib.IdleAdd(func() {
			switch {
			case err == nil:
				a.panel.EIPStarted()
			case errors.Is(err, common.ErrAlreadyRunning):
				// The state handler stops and reports
			default:
				log.Error("Starting Encrypted Internet: %v", err)
				a.panel.EIPStopped()
				a.panel.SetStartStopEnabled(true)
				a.panel.SetGlobalStatus(err.Error(), true)
				if a.config.UI.ShowNotifications {
					go NotifyError(a.notifier, "Encrypted Internet", err.Error())
				}
			}
		})
	}()
}

// stopEIP stops OpenVPN. With nothing running it only resets the panel.
func (a *Application) stopEIP() {
	if !a.services.EIP.IsRunning() {
		a.panel.EIPStopped()
		a.panel.SetStartStopEnabled(true)
		return
	}

	log.Info("Stopping Encrypted Internet")
	a.panel.SetStartStopEnabled(false)
	go func() {
		if err := a.services.EIP.Stop(); err != nil && !errors.Is(err, common.ErrNotRunning) {
			log.Error("Stopping Encrypted Internet: %v", err)
			glib.IdleAdd(func() {
				a.panel.SetStartStopEnabled(true)
				a.panel.SetGlobalStatus(err.Error(), true)
			})
		}
	}()
}

// startMail brings the mail service up off the main loop.
func (a *Application) startMail() {
	if a.config.Mail.UserID == "" {
		a.window.SetStatus("No mail account configured")
		return
	}

	go func() {
		err := a.services.StartMail(a.ctx)
		glib.IdleAdd(func() {
			if err != nil {
				log.Error("Starting mail: %v", err)
				a.window.SetStatus("Mail unavailable: " + err.Error())
				return
			}
			mode := "online"
			if a.config.Mail.Offline {
				mode = "offline"
			}
			a.window.SetStatus(fmt.Sprintf("Mail for %s on %s (%s)", a.config.Mail.UserID, a.config.Mail.ListenAddr, mode))
		})
	}()
}

// ApplyTheme applies the specified theme to the application.
// Supported values: "auto" (system default), "light", "dark"
func (a *Application) ApplyTheme(theme string) {
	settings := gtk.SettingsGetDefault()
	if settings == nil {
		return
	}

	switch theme {
	case common.ThemeLight:
		settings.SetObjectProperty("gtk-application-prefer-dark-theme", false)
	case common.ThemeDark:
		settings.SetObjectProperty("gtk-application-prefer-dark-theme", true)
	}
}

// GetVersion returns the application version
func (a *Application) GetVersion() string {
	return a.version
}

// showWindow shows the main window
func (a *Application) showWindow() {
	if a.window != nil {
		a.window.window.Present()
	}
}

// Quit closes the application
func (a *Application) Quit() {
	systray.Quit()
	a.app.Quit()
}
