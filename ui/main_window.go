package ui

import (
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/yllada/bitmask-client/common"
)

// MainWindow represents the main application window.
type MainWindow struct {
	app         *Application
	window      *gtk.ApplicationWindow
	headerBar   *gtk.HeaderBar
	status      *StatusWidget
	statusBar   *gtk.Box
	statusLabel *gtk.Label
}

// NewMainWindow creates a new main window.
func NewMainWindow(app *Application) *MainWindow {
	mw := &MainWindow{
		app: app,
	}

	mw.window = gtk.NewApplicationWindow(app.app)
	mw.window.SetTitle(common.AppName)
	mw.window.SetDefaultSize(common.DefaultWindowWidth, common.DefaultWindowHeight)
	mw.window.SetResizable(false)
	mw.window.SetIconName("bitmask")

	// Closing hides the window while the tray keeps the app running
	mw.window.SetHideOnClose(app.config.UI.MinimizeToTray)

	mw.createLayout()

	return mw
}

// createLayout creates the window layout.
func (mw *MainWindow) createLayout() {
	mw.headerBar = gtk.NewHeaderBar()

	menuButton := gtk.NewMenuButton()
	menuButton.SetIconName("open-menu-symbolic")
	menuButton.SetTooltipText("Menu")
	mw.headerBar.PackEnd(menuButton)
	menuButton.SetMenuModel(mw.createMenu())

	mw.window.SetTitlebar(mw.headerBar)

	mainBox := gtk.NewBox(gtk.OrientationVertical, 0)

	mw.status = NewStatusWidget()
	mw.status.Widget().SetVExpand(true)
	mainBox.Append(mw.status.Widget())

	mw.createStatusBar()
	mainBox.Append(mw.statusBar)

	mw.window.SetChild(mainBox)
}

// windowAction is a menu entry backed by an app-scoped action.
type windowAction struct {
	name    string
	label   string
	accels  []string
	section int
	run     func()
}

func (mw *MainWindow) actions() []windowAction {
	return []windowAction{
		{name: "fetch", label: "Check Mail Now", accels: []string{"F5"}, section: 0, run: func() {
			mw.app.services.Mail.FetchNow()
			mw.SetStatus("Checking mail...")
		}},
		{name: "preferences", label: "Preferences", accels: []string{"<Control>comma"}, section: 1, run: mw.onPreferences},
		{name: "about", label: "About", section: 2, run: mw.onAbout},
		{name: "quit", label: "Quit", accels: []string{"<Control>q"}, section: 2, run: mw.app.Quit},
	}
}

// createMenu registers the window actions and returns the menu model.
func (mw *MainWindow) createMenu() *gio.Menu {
	menu := gio.NewMenu()
	var sections []*gio.Menu

	for _, a := range mw.actions() {
		for len(sections) <= a.section {
			sections = append(sections, gio.NewMenu())
		}
		sections[a.section].Append(a.label, "app."+a.name)

		run := a.run
		action := gio.NewSimpleAction(a.name, nil)
		action.ConnectActivate(func(_ *glib.Variant) { run() })
		mw.app.app.AddAction(action)
		if len(a.accels) > 0 {
			mw.app.app.SetAccelsForAction("app."+a.name, a.accels)
		}
	}

	for _, section := range sections {
		menu.AppendSection("", &section.MenuModel)
	}
	return menu
}

// createStatusBar creates the status bar.
func (mw *MainWindow) createStatusBar() {
	mw.statusBar = gtk.NewBox(gtk.OrientationHorizontal, 12)
	mw.statusBar.AddCSSClass("status-bar")

	mailIcon := gtk.NewImage()
	mailIcon.SetFromIconName("mail-unread-symbolic")
	mailIcon.SetPixelSize(16)
	mw.statusBar.Append(mailIcon)

	mw.statusLabel = gtk.NewLabel("Ready")
	mw.statusLabel.SetXAlign(0)
	mw.statusLabel.SetHExpand(true)
	mw.statusBar.Append(mw.statusLabel)
}

// Show displays the window.
func (mw *MainWindow) Show() {
	mw.window.Show()
}

// SetStatus updates the status text.
func (mw *MainWindow) SetStatus(text string) {
	if mw.statusLabel != nil {
		mw.statusLabel.SetText(text)
	}
}

func (mw *MainWindow) onPreferences() {
	NewPreferencesDialog(mw).Show()
}

func (mw *MainWindow) onAbout() {
	about := gtk.NewAboutDialog()
	about.SetTransientFor(&mw.window.Window)
	about.SetModal(true)

	about.SetProgramName(common.AppName)
	about.SetLogoIconName("bitmask")
	about.SetVersion(mw.app.version)
	about.SetComments("Encrypted Internet and a local encrypted mail service.")
	about.SetWebsite("https://github.com/yllada/bitmask-client")
	about.SetLicenseType(gtk.LicenseGPL30)
	about.Present()
}

// showError shows a modal error message over the main window.
func (mw *MainWindow) showError(title, message string) {
	window := gtk.NewWindow()
	window.SetTitle(title)
	window.SetTransientFor(&mw.window.Window)
	window.SetModal(true)
	window.SetResizable(false)

	box := gtk.NewBox(gtk.OrientationVertical, 12)
	box.SetMarginTop(18)
	box.SetMarginBottom(18)
	box.SetMarginStart(18)
	box.SetMarginEnd(18)

	row := gtk.NewBox(gtk.OrientationHorizontal, 12)
	icon := gtk.NewImageFromIconName("dialog-error-symbolic")
	icon.SetPixelSize(32)
	row.Append(icon)
	text := gtk.NewLabel(message)
	text.SetWrap(true)
	text.SetMaxWidthChars(40)
	text.SetXAlign(0)
	row.Append(text)
	box.Append(row)

	ok := gtk.NewButtonWithLabel("Close")
	ok.SetHAlign(gtk.AlignEnd)
	ok.ConnectClicked(window.Close)
	box.Append(ok)

	window.SetChild(box)
	window.Present()
}
