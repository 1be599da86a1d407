package ui

import (
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
)

// switchSetting binds a boolean config field to a row in the dialog.
type switchSetting struct {
	title       string
	description string
	value       *bool
	sw          *gtk.Switch
}

type settingsGroup struct {
	heading  string
	settings []*switchSetting
}

var themeChoices = []struct {
	id    string
	label string
}{
	{common.ThemeAuto, "System Default"},
	{common.ThemeLight, "Light"},
	{common.ThemeDark, "Dark"},
}

// PreferencesDialog edits the ui section and the mail offline flag.
type PreferencesDialog struct {
	window     *gtk.Window
	mainWindow *MainWindow
	config     *config.Config
	groups     []settingsGroup
	theme      *gtk.DropDown
}

// NewPreferencesDialog builds the dialog for the main window's config.
func NewPreferencesDialog(mainWindow *MainWindow) *PreferencesDialog {
	cfg := mainWindow.app.config
	pd := &PreferencesDialog{
		mainWindow: mainWindow,
		config:     cfg,
		groups: []settingsGroup{
			{heading: "Desktop", settings: []*switchSetting{
				{title: "Minimize to Tray", description: "Closing the window leaves Bitmask in the tray", value: &cfg.UI.MinimizeToTray},
				{title: "Encrypted Internet Alerts", description: "Notify when the tunnel goes up or down", value: &cfg.UI.ShowNotifications},
			}},
			{heading: "Mail", settings: []*switchSetting{
				{title: "Offline Mode", description: "Serve local clients from the store only. Applies on next start", value: &cfg.Mail.Offline},
			}},
		},
	}
	pd.build()
	return pd
}

func (pd *PreferencesDialog) build() {
	pd.window = gtk.NewWindow()
	pd.window.SetTitle("Preferences")
	pd.window.SetTransientFor(&pd.mainWindow.window.Window)
	pd.window.SetModal(true)
	pd.window.SetDefaultSize(440, -1)

	header := gtk.NewHeaderBar()
	header.SetShowTitleButtons(false)

	cancel := gtk.NewButtonWithLabel("Cancel")
	cancel.ConnectClicked(pd.window.Close)
	header.PackStart(cancel)

	save := gtk.NewButtonWithLabel("Save")
	save.AddCSSClass("suggested-action")
	save.ConnectClicked(func() {
		if pd.apply() {
			pd.window.Close()
		}
	})
	header.PackEnd(save)
	pd.window.SetTitlebar(header)

	content := gtk.NewBox(gtk.OrientationVertical, 18)
	content.SetMarginTop(18)
	content.SetMarginBottom(18)
	content.SetMarginStart(18)
	content.SetMarginEnd(18)

	for _, group := range pd.groups {
		list := newSettingsList(content, group.heading)
		for _, s := range group.settings {
			s.sw = gtk.NewSwitch()
			s.sw.SetActive(*s.value)
			list.Append(settingRow(s.title, s.description, s.sw))
		}
	}

	labels := make([]string, len(themeChoices))
	selected := uint(0)
	for i, choice := range themeChoices {
		labels[i] = choice.label
		if choice.id == pd.config.UI.Theme {
			selected = uint(i)
		}
	}
	pd.theme = gtk.NewDropDown(gtk.NewStringList(labels), nil)
	pd.theme.SetSelected(selected)
	appearance := newSettingsList(content, "Appearance")
	appearance.Append(settingRow("Theme", "Color scheme of the window", pd.theme))

	pd.window.SetChild(content)
}

// newSettingsList appends a heading and a boxed list to parent.
func newSettingsList(parent *gtk.Box, heading string) *gtk.ListBox {
	label := gtk.NewLabel(heading)
	label.SetXAlign(0)
	label.AddCSSClass("heading")
	parent.Append(label)

	list := gtk.NewListBox()
	list.SetSelectionMode(gtk.SelectionNone)
	list.AddCSSClass("boxed-list")
	list.AddCSSClass("preferences-card")
	parent.Append(list)
	return list
}

func settingRow(title, description string, widget gtk.Widgetter) *gtk.Box {
	row := gtk.NewBox(gtk.OrientationHorizontal, 12)
	row.SetMarginTop(10)
	row.SetMarginBottom(10)
	row.SetMarginStart(12)
	row.SetMarginEnd(12)

	text := gtk.NewBox(gtk.OrientationVertical, 2)
	text.SetHExpand(true)
	titleLabel := gtk.NewLabel(title)
	titleLabel.SetXAlign(0)
	text.Append(titleLabel)

	desc := gtk.NewLabel(description)
	desc.SetXAlign(0)
	desc.SetWrap(true)
	desc.AddCSSClass("dim-label")
	desc.AddCSSClass("caption")
	text.Append(desc)

	row.Append(text)
	gtk.BaseWidget(widget).SetVAlign(gtk.AlignCenter)
	row.Append(widget)
	return row
}

// apply writes the widget state back to the config and saves it.
// The previous values are restored if saving fails.
func (pd *PreferencesDialog) apply() bool {
	prevTheme := pd.config.UI.Theme
	prev := make(map[*switchSetting]bool)
	for _, group := range pd.groups {
		for _, s := range group.settings {
			prev[s] = *s.value
			*s.value = s.sw.Active()
		}
	}
	if idx := pd.theme.Selected(); int(idx) < len(themeChoices) {
		pd.config.UI.Theme = themeChoices[idx].id
	}

	if err := pd.config.Save(); err != nil {
		for s, v := range prev {
			*s.value = v
		}
		pd.config.UI.Theme = prevTheme
		log.Error("Saving preferences: %v", err)
		pd.mainWindow.showError("Preferences", "Could not save preferences: "+err.Error())
		return false
	}

	pd.mainWindow.app.ApplyTheme(pd.config.UI.Theme)
	pd.mainWindow.window.SetHideOnClose(pd.config.UI.MinimizeToTray)
	pd.mainWindow.SetStatus("Preferences saved")
	return true
}

// Show presents the dialog.
func (pd *PreferencesDialog) Show() {
	pd.window.Present()
}
