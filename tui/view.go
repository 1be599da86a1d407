package tui

import (
	"github.com/yllada/bitmask-client/statuspanel"
)

// panelView records what the status panel asks to display. It implements
// statuspanel.View and is rendered by Model.View.
type panelView struct {
	value   int
	style   statuspanel.ToggleStyle
	enabled bool

	status    string
	statusErr bool

	global        string
	globalErr     bool
	globalVisible bool

	icon    statuspanel.Icon
	variant statuspanel.Variant

	upload   string
	download string
	provider string
}

var _ statuspanel.View = (*panelView)(nil)

func (v *panelView) SetToggleValue(value int)                     { v.value = value }
func (v *panelView) SetToggleStyle(style statuspanel.ToggleStyle) { v.style = style }
func (v *panelView) SetToggleEnabled(enabled bool)                { v.enabled = enabled }
func (v *panelView) SetGlobalStatusVisible(visible bool)          { v.globalVisible = visible }
func (v *panelView) SetUpload(text string)                        { v.upload = text }
func (v *panelView) SetDownload(text string)                      { v.download = text }
func (v *panelView) SetProvider(name string)                      { v.provider = name }

func (v *panelView) SetStatusLabel(text string, isError bool) {
	v.status = text
	v.statusErr = isError
}

func (v *panelView) SetGlobalStatus(text string, isError bool) {
	v.global = text
	v.globalErr = isError
}

func (v *panelView) SetIcon(icon statuspanel.Icon, variant statuspanel.Variant) {
	v.icon = icon
	v.variant = variant
}
