package ui

import (
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/statuspanel"
)

// StatusWidget is the GTK rendition of the EIP status panel.
// It implements statuspanel.View.
type StatusWidget struct {
	root *gtk.Box

	icon          *gtk.Image
	statusLabel   *gtk.Label
	providerLabel *gtk.Label
	toggle        *gtk.Scale
	uploadLabel   *gtk.Label
	downloadLabel *gtk.Label

	globalBox   *gtk.Box
	globalLabel *gtk.Label

	panel   *statuspanel.Panel
	pointer *statuspanel.Pointer
	style   statuspanel.ToggleStyle
}

var _ statuspanel.View = (*StatusWidget)(nil)

// NewStatusWidget builds the panel widgets.
func NewStatusWidget() *StatusWidget {
	w := &StatusWidget{}

	w.root = gtk.NewBox(gtk.OrientationVertical, 12)
	w.root.SetMarginTop(18)
	w.root.SetMarginBottom(12)
	w.root.SetMarginStart(18)
	w.root.SetMarginEnd(18)

	// Icon, status and toggle row
	row := gtk.NewBox(gtk.OrientationHorizontal, 12)

	w.icon = gtk.NewImage()
	w.icon.SetPixelSize(common.StatusIconSize)
	row.Append(w.icon)

	textBox := gtk.NewBox(gtk.OrientationVertical, 2)
	textBox.SetHExpand(true)
	textBox.SetVAlign(gtk.AlignCenter)

	title := gtk.NewLabel("Encrypted Internet")
	title.SetXAlign(0)
	title.AddCSSClass("heading")
	textBox.Append(title)

	w.statusLabel = gtk.NewLabel("")
	w.statusLabel.SetXAlign(0)
	w.statusLabel.AddCSSClass("eip-status")
	textBox.Append(w.statusLabel)

	w.providerLabel = gtk.NewLabel("")
	w.providerLabel.SetXAlign(0)
	w.providerLabel.AddCSSClass("provider-label")
	w.providerLabel.SetVisible(false)
	textBox.Append(w.providerLabel)

	row.Append(textBox)

	w.toggle = gtk.NewScaleWithRange(gtk.OrientationHorizontal, 0, statuspanel.MaxValue, 1)
	w.toggle.SetDrawValue(false)
	w.toggle.SetSizeRequest(72, -1)
	w.toggle.SetVAlign(gtk.AlignCenter)
	w.toggle.AddCSSClass("eip-toggle")
	w.toggle.AddCSSClass(toggleStyleClass(statuspanel.StyleOff))
	w.toggle.ConnectValueChanged(w.onValueChanged)

	// The drag gesture claims every press on the track so that the range's
	// own gestures never move the handle behind the panel's back.
	drag := gtk.NewGestureDrag()
	drag.SetPropagationPhase(gtk.PhaseCapture)
	var startX float64
	drag.ConnectDragBegin(func(x, _ float64) {
		if w.pointer == nil || !w.pointer.Press(x) {
			drag.SetState(gtk.EventSequenceDenied)
			return
		}
		startX = x
		drag.SetState(gtk.EventSequenceClaimed)
	})
	drag.ConnectDragUpdate(func(offsetX, _ float64) {
		if w.pointer != nil && w.pointer.Motion(startX+offsetX) {
			w.toggle.SetValue(float64(w.trackValue(startX + offsetX)))
		}
	})
	drag.ConnectDragEnd(func(offsetX, _ float64) {
		if w.pointer != nil {
			w.pointer.Release(w.trackValue(startX + offsetX))
		}
	})
	drag.ConnectCancel(func(_ *gdk.EventSequence) {
		if w.pointer != nil {
			w.pointer.Cancel(int(w.toggle.Value()))
		}
	})
	w.toggle.AddController(drag)
	row.Append(w.toggle)

	w.root.Append(row)

	// Throughput
	traffic := gtk.NewBox(gtk.OrientationHorizontal, 18)
	traffic.SetHAlign(gtk.AlignEnd)

	w.uploadLabel = gtk.NewLabel("")
	w.uploadLabel.AddCSSClass("throughput")
	traffic.Append(w.uploadLabel)

	w.downloadLabel = gtk.NewLabel("")
	w.downloadLabel.AddCSSClass("throughput")
	traffic.Append(w.downloadLabel)

	w.root.Append(traffic)

	// Global status box
	w.globalBox = gtk.NewBox(gtk.OrientationHorizontal, 8)
	w.globalBox.AddCSSClass("global-status")
	w.globalLabel = gtk.NewLabel("")
	w.globalLabel.SetWrap(true)
	w.globalLabel.SetXAlign(0)
	w.globalBox.Append(w.globalLabel)
	w.root.Append(w.globalBox)

	return w
}

// Bind routes user input on the toggle to panel.
func (w *StatusWidget) Bind(panel *statuspanel.Panel) {
	w.panel = panel
	w.pointer = statuspanel.NewPointer(panel)
}

// Widget returns the root container.
func (w *StatusWidget) Widget() *gtk.Box {
	return w.root
}

func (w *StatusWidget) onValueChanged() {
	if w.panel != nil {
		w.panel.OnValueChanged(int(w.toggle.Value()), w.pointer.Held())
	}
}

func (w *StatusWidget) trackValue(x float64) int {
	return statuspanel.TrackValue(x, float64(w.toggle.Width()))
}

// SetToggleValue moves the toggle handle.
func (w *StatusWidget) SetToggleValue(value int) {
	w.toggle.SetValue(float64(value))
}

// SetToggleStyle swaps the toggle's style class.
func (w *StatusWidget) SetToggleStyle(style statuspanel.ToggleStyle) {
	w.toggle.RemoveCSSClass(toggleStyleClass(w.style))
	w.toggle.AddCSSClass(toggleStyleClass(style))
	w.style = style
}

// SetToggleEnabled sets whether the toggle accepts input.
func (w *StatusWidget) SetToggleEnabled(enabled bool) {
	w.toggle.SetSensitive(enabled)
}

// SetStatusLabel sets the EIP status text.
func (w *StatusWidget) SetStatusLabel(text string, isError bool) {
	w.statusLabel.SetText(text)
	setErrorClass(&w.statusLabel.Widget, isError)
}

// SetGlobalStatus sets the global status text.
func (w *StatusWidget) SetGlobalStatus(text string, isError bool) {
	w.globalLabel.SetText(text)
	setErrorClass(&w.globalBox.Widget, isError)
}

// SetGlobalStatusVisible shows or hides the global status box.
func (w *StatusWidget) SetGlobalStatusVisible(visible bool) {
	w.globalBox.SetVisible(visible)
}

// SetIcon shows icon in variant v.
func (w *StatusWidget) SetIcon(icon statuspanel.Icon, v statuspanel.Variant) {
	data := IconBytes(icon, v, common.StatusIconSize)
	texture, err := gdk.NewTextureFromBytes(glib.NewBytes(data))
	if err != nil {
		log.Warn("Loading %s: %v", icon.FileName(v), err)
		return
	}
	w.icon.SetFromPaintable(texture)
}

// SetUpload sets the upload throughput text.
func (w *StatusWidget) SetUpload(text string) {
	w.uploadLabel.SetText("↑" + text)
}

// SetDownload sets the download throughput text.
func (w *StatusWidget) SetDownload(text string) {
	w.downloadLabel.SetText("↓" + text)
}

// SetProvider sets the provider label.
func (w *StatusWidget) SetProvider(name string) {
	w.providerLabel.SetText(name)
	w.providerLabel.SetVisible(name != "")
}

func setErrorClass(widget *gtk.Widget, isError bool) {
	if isError {
		widget.AddCSSClass("status-error")
	} else {
		widget.RemoveCSSClass("status-error")
	}
}
