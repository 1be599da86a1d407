package statuspanel

import (
	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/eip"
)

// MaxValue is the toggle's ON position. Zero is OFF.
const MaxValue = 100

// ToggleStyle is the toggle's visual state.
type ToggleStyle int

const (
	StyleOff ToggleStyle = iota
	StyleOn
	StyleInProgress
)

// String returns the style name used in CSS classes and themes.
func (s ToggleStyle) String() string {
	switch s {
	case StyleOn:
		return "on"
	case StyleInProgress:
		return "inprogress"
	default:
		return "off"
	}
}

// View is the widget surface the panel drives.
type View interface {
	SetToggleValue(value int)
	SetToggleStyle(style ToggleStyle)
	SetToggleEnabled(enabled bool)
	SetStatusLabel(text string, isError bool)
	SetGlobalStatus(text string, isError bool)
	SetGlobalStatusVisible(visible bool)
	SetIcon(icon Icon, variant Variant)
	SetUpload(text string)
	SetDownload(text string)
	SetProvider(name string)
}

// Tray is the system tray entry mirroring the panel.
type Tray interface {
	SetIcon(icon Icon, variant Variant)
	SetTooltip(text string)
	SetStatusText(text string)
}

// Scheduler runs fn on the UI thread's next idle cycle.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Panel is the EIP status panel.
type Panel struct {
	view      View
	tray      Tray
	scheduler Scheduler

	windowVariant Variant
	trayVariant   Variant

	value    int
	style    ToggleStyle
	enabled  bool
	lastStep string
	updating bool

	// ToggledOn and ToggledOff fire when the toggle lands on ON or OFF.
	ToggledOn  *Signal
	ToggledOff *Signal
	// StartEIP and StopEIP ask the application to start or stop EIP.
	StartEIP *Signal
	StopEIP  *Signal

	log common.Logger
}

// New creates a panel over view. tray may be nil.
func New(view View, tray Tray, scheduler Scheduler, platform Platform) *Panel {
	p := &Panel{
		view:       view,
		tray:       tray,
		scheduler:  scheduler,
		ToggledOn:  NewSignal("toggled-on"),
		ToggledOff: NewSignal("toggled-off"),
		StartEIP:   NewSignal("start-eip"),
		StopEIP:    NewSignal("stop-eip"),
		log:        common.NamedLogger("statuspanel"),
	}
	p.windowVariant, p.trayVariant = IconVariants(platform)

	p.setToggleStyle(StyleOff)
	p.ToggledOn.Connect(p.StartEIP.Emit)
	p.SetStartStopEnabled(false)
	p.HideStatusBox()
	return p
}

// Value returns the committed toggle value.
func (p *Panel) Value() int { return p.value }

// Style returns the current toggle style.
func (p *Panel) Style() ToggleStyle { return p.style }

// Enabled reports whether the toggle accepts input.
func (p *Panel) Enabled() bool { return p.enabled }

// LastStep returns the most recent status step shown.
func (p *Panel) LastStep() string { return p.lastStep }

// changeValue moves the toggle to value and emits ToggledOn for MaxValue,
// ToggledOff otherwise.
func (p *Panel) changeValue(value int) {
	p.updating = true
	p.view.SetToggleValue(value)
	p.updating = false
	p.value = value

	if value == MaxValue {
		p.ToggledOn.Emit()
	} else {
		p.ToggledOff.Emit()
	}
}

func (p *Panel) setToggleStyle(style ToggleStyle) {
	p.style = style
	p.view.SetToggleStyle(style)
}

// ToggleOn sets the toggle ON with the in-progress style.
func (p *Panel) ToggleOn() {
	p.changeValue(MaxValue)
	p.setToggleStyle(StyleInProgress)
}

// ToggleConnected sets the toggle ON with the ON style.
func (p *Panel) ToggleConnected() {
	p.changeValue(MaxValue)
	p.setToggleStyle(StyleOn)
}

// ToggleOff sets the toggle OFF.
func (p *Panel) ToggleOff() {
	p.changeValue(0)
	p.setToggleStyle(StyleOff)
}

// OnValueChanged handles a toggle value change from the view. While the
// handle is held down the change is left to OnReleased.
func (p *Panel) OnValueChanged(value int, sliderDown bool) {
	if p.updating || sliderDown {
		return
	}

	newValue := 0
	if value > p.value {
		newValue = MaxValue
	}
	p.setToggleStyle(StyleInProgress)
	p.changeValue(newValue)
}

// OnReleased snaps the toggle to the side of the midpoint position is on.
func (p *Panel) OnReleased(position int) {
	newValue := 0
	if position > MaxValue/2 {
		newValue = MaxValue
	}
	p.setToggleStyle(StyleInProgress)
	p.changeValue(newValue)
}

// Toggle flips the toggle as a click would.
func (p *Panel) Toggle() {
	if !p.enabled {
		return
	}
	if p.value == MaxValue {
		p.OnValueChanged(0, false)
	} else {
		p.OnValueChanged(MaxValue, false)
	}
}

// SetStartStopEnabled enables or disables the toggle.
func (p *Panel) SetStartStopEnabled(enabled bool) {
	p.enabled = enabled
	p.view.SetToggleEnabled(enabled)
}

// SetGlobalStatus shows text in the global status box.
func (p *Panel) SetGlobalStatus(text string, isError bool) {
	p.view.SetGlobalStatus(text, isError)
	p.view.SetGlobalStatusVisible(true)
}

// HideStatusBox hides the global status box.
func (p *Panel) HideStatusBox() {
	p.view.SetGlobalStatusVisible(false)
}

// SetEIPStatus sets the status label and the tray tooltip.
func (p *Panel) SetEIPStatus(text string, isError bool) {
	if p.tray != nil {
		p.tray.SetTooltip(text)
	}
	p.view.SetStatusLabel(text, isError)
}

// EIPPreUp prepares the panel for EIP coming up.
func (p *Panel) EIPPreUp() {
	p.HideStatusBox()
	p.SetStartStopEnabled(false)
}

// EIPStarted switches the toggle to stop EIP when turned off.
func (p *Panel) EIPStarted() {
	_ = p.ToggledOn.Disconnect()
	_ = p.ToggledOff.Disconnect()
	p.ToggledOff.Connect(p.StopEIP.Emit)
	p.ToggleOn()
}

// EIPStopped switches the toggle to start EIP when turned on.
func (p *Panel) EIPStopped() {
	_ = p.ToggledOff.Disconnect()
	_ = p.ToggledOn.Disconnect()
	p.ToggledOn.Connect(p.StartEIP.Emit)
	p.ToggleOff()
}

// SetEIPStatusIcon shows the icon and tray message for step.
func (p *Panel) SetEIPStatusIcon(step string) {
	status := MapStatus(step)
	p.view.SetIcon(status.Icon, p.windowVariant)
	if p.tray != nil {
		p.tray.SetIcon(status.Icon, p.trayVariant)
		p.tray.SetStatusText(status.TrayMessage)
	}
}

// UpdateVPNStatus refreshes the throughput labels.
func (p *Panel) UpdateVPNStatus(data eip.Data) {
	p.view.SetUpload(FormatThroughput(data[eip.TunTapWriteKey]))
	p.view.SetDownload(FormatThroughput(data[eip.TunTapReadKey]))
}

// UpdateVPNState reflects a new status step.
func (p *Panel) UpdateVPNState(data eip.Data) {
	step := data.Step()
	p.lastStep = step
	p.SetEIPStatusIcon(step)

	switch step {
	case eip.StatusConnected:
		p.SetEIPStatus(StatusLabel(step), false)
		p.ToggleConnected()
		p.SetStartStopEnabled(true)
	case eip.StatusAlreadyRunning:
		p.log.Warn("EIP already running")
		p.scheduler.Schedule(p.StopEIP.Emit)
		p.scheduler.Schedule(func() {
			p.SetGlobalStatus(AlreadyRunningMessage, true)
		})
	default:
		p.SetEIPStatus(StatusLabel(step), false)
	}
}

// SetProvider sets the provider label.
func (p *Panel) SetProvider(name string) {
	p.view.SetProvider(name)
}
