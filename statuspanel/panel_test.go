package statuspanel

import (
	"testing"

	"github.com/yllada/bitmask-client/eip"
)

type fakeView struct {
	value         int
	style         ToggleStyle
	enabled       bool
	label         string
	labelError    bool
	global        string
	globalError   bool
	globalVisible bool
	icon          Icon
	variant       Variant
	upload        string
	download      string
	provider      string

	// panel is set to simulate a toolkit that re-fires value-changed
	// when the value is set programmatically.
	panel *Panel
}

func (v *fakeView) SetToggleValue(value int) {
	v.value = value
	if v.panel != nil {
		v.panel.OnValueChanged(value, false)
	}
}
func (v *fakeView) SetToggleStyle(style ToggleStyle)   { v.style = style }
func (v *fakeView) SetToggleEnabled(enabled bool)      { v.enabled = enabled }
func (v *fakeView) SetStatusLabel(t string, e bool)    { v.label, v.labelError = t, e }
func (v *fakeView) SetGlobalStatus(t string, e bool)   { v.global, v.globalError = t, e }
func (v *fakeView) SetGlobalStatusVisible(b bool)      { v.globalVisible = b }
func (v *fakeView) SetIcon(icon Icon, variant Variant) { v.icon, v.variant = icon, variant }
func (v *fakeView) SetUpload(text string)              { v.upload = text }
func (v *fakeView) SetDownload(text string)            { v.download = text }
func (v *fakeView) SetProvider(name string)            { v.provider = name }

type fakeTray struct {
	icon    Icon
	variant Variant
	tooltip string
	status  string
}

func (t *fakeTray) SetIcon(icon Icon, variant Variant) { t.icon, t.variant = icon, variant }
func (t *fakeTray) SetTooltip(text string)             { t.tooltip = text }
func (t *fakeTray) SetStatusText(text string)          { t.status = text }

type queueScheduler struct {
	queue []func()
}

func (q *queueScheduler) Schedule(fn func()) { q.queue = append(q.queue, fn) }

func (q *queueScheduler) runAll() {
	queue := q.queue
	q.queue = nil
	for _, fn := range queue {
		fn()
	}
}

type counter struct{ n int }

func (c *counter) inc() { c.n++ }

func newTestPanel(platform Platform) (*Panel, *fakeView, *fakeTray, *queueScheduler) {
	view := &fakeView{}
	tray := &fakeTray{}
	sched := &queueScheduler{}
	p := New(view, tray, sched, platform)
	return p, view, tray, sched
}

func TestNew_InitialState(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})

	if view.style != StyleOff {
		t.Errorf("style = %v, want off", view.style)
	}
	if view.enabled || p.Enabled() {
		t.Error("toggle should start disabled")
	}
	if view.globalVisible {
		t.Error("global status box should start hidden")
	}
	if p.ToggledOn.Connected() != 1 {
		t.Errorf("ToggledOn handlers = %d, want 1", p.ToggledOn.Connected())
	}
	if p.ToggledOff.Connected() != 0 {
		t.Errorf("ToggledOff handlers = %d, want 0", p.ToggledOff.Connected())
	}
}

func TestPanel_ChangeValueEmits(t *testing.T) {
	tests := []struct {
		value   int
		wantOn  int
		wantOff int
	}{
		{100, 1, 0},
		{0, 0, 1},
		{99, 0, 1},
		{50, 0, 1},
	}

	for _, tt := range tests {
		p, _, _, _ := newTestPanel(Platform{})
		on, off := &counter{}, &counter{}
		p.ToggledOn.Connect(on.inc)
		p.ToggledOff.Connect(off.inc)

		p.changeValue(tt.value)

		if on.n != tt.wantOn || off.n != tt.wantOff {
			t.Errorf("changeValue(%d): on=%d off=%d, want on=%d off=%d",
				tt.value, on.n, off.n, tt.wantOn, tt.wantOff)
		}
		if p.Value() != tt.value {
			t.Errorf("Value() = %d, want %d", p.Value(), tt.value)
		}
	}
}

func TestPanel_OnReleased(t *testing.T) {
	tests := []struct {
		position  int
		wantValue int
	}{
		{51, 100},
		{50, 0},
		{0, 0},
		{100, 100},
		{75, 100},
		{25, 0},
	}

	for _, tt := range tests {
		p, view, _, _ := newTestPanel(Platform{})

		p.OnReleased(tt.position)

		if view.value != tt.wantValue || p.Value() != tt.wantValue {
			t.Errorf("OnReleased(%d): value = %d, want %d", tt.position, view.value, tt.wantValue)
		}
		if view.style != StyleInProgress {
			t.Errorf("OnReleased(%d): style = %v, want inprogress", tt.position, view.style)
		}
	}
}

func TestPanel_OnValueChanged(t *testing.T) {
	tests := []struct {
		name       string
		committed  int
		value      int
		sliderDown bool
		wantValue  int
		wantStyle  ToggleStyle
	}{
		{"click right of off", 0, 30, false, 100, StyleInProgress},
		{"click left of on", 100, 70, false, 0, StyleInProgress},
		{"click at committed value", 0, 0, false, 0, StyleInProgress},
		{"dragging is ignored", 0, 80, true, 0, StyleOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, view, _, _ := newTestPanel(Platform{})
			p.value = tt.committed

			p.OnValueChanged(tt.value, tt.sliderDown)

			if p.Value() != tt.wantValue {
				t.Errorf("Value() = %d, want %d", p.Value(), tt.wantValue)
			}
			if view.style != tt.wantStyle {
				t.Errorf("style = %v, want %v", view.style, tt.wantStyle)
			}
		})
	}
}

func TestPanel_ReentrantViewDoesNotDoubleEmit(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})
	view.panel = p
	starts := &counter{}
	p.StartEIP.Connect(starts.inc)

	p.OnValueChanged(40, false)

	if starts.n != 1 {
		t.Errorf("StartEIP emitted %d times, want 1", starts.n)
	}
}

func TestPanel_StartStopWiring(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})
	starts, stops := &counter{}, &counter{}
	p.StartEIP.Connect(starts.inc)
	p.StopEIP.Connect(stops.inc)

	// Turning on while stopped asks to start.
	p.OnReleased(90)
	if starts.n != 1 || stops.n != 0 {
		t.Fatalf("after toggle on: starts=%d stops=%d", starts.n, stops.n)
	}

	p.EIPStarted()
	if view.value != MaxValue || view.style != StyleInProgress {
		t.Errorf("after EIPStarted: value=%d style=%v", view.value, view.style)
	}
	if starts.n != 1 {
		t.Error("EIPStarted must not re-emit StartEIP")
	}

	// Turning off while started asks to stop.
	p.OnReleased(10)
	if stops.n != 1 {
		t.Fatalf("after toggle off: stops=%d, want 1", stops.n)
	}

	p.EIPStopped()
	if view.value != 0 || view.style != StyleOff {
		t.Errorf("after EIPStopped: value=%d style=%v", view.value, view.style)
	}
	if stops.n != 1 {
		t.Error("EIPStopped must not re-emit StopEIP")
	}

	p.OnReleased(100)
	if starts.n != 2 {
		t.Errorf("starts = %d after second toggle on, want 2", starts.n)
	}
}

func TestPanel_EIPStoppedTwiceIsTolerated(t *testing.T) {
	p, _, _, _ := newTestPanel(Platform{})

	p.EIPStopped()
	p.EIPStopped()

	if p.ToggledOff.Connected() != 0 {
		t.Errorf("ToggledOff handlers = %d, want 0", p.ToggledOff.Connected())
	}
	if p.ToggledOn.Connected() != 1 {
		t.Errorf("ToggledOn handlers = %d, want 1", p.ToggledOn.Connected())
	}
}

func TestPanel_UpdateVPNState(t *testing.T) {
	tests := []struct {
		step        string
		wantIcon    Icon
		wantTray    string
		wantLabel   string
		wantEnabled bool
	}{
		{eip.StatusWait, IconConnecting, TrayTurningOn, "Waiting to start...", false},
		{eip.StatusAuth, IconConnecting, TrayTurningOn, "Authenticating...", false},
		{eip.StatusGetConfig, IconConnecting, TrayTurningOn, "Retrieving configuration...", false},
		{eip.StatusReconnecting, IconConnecting, TrayTurningOn, "RECONNECTING", false},
		{eip.StatusAssignIP, IconConnecting, TrayTurningOn, "Assigning IP", false},
		{eip.StatusConnected, IconConnected, TrayEncryptionOn, "ON", true},
		{eip.StatusExiting, IconError, TrayEncryptionOff, "EXITING", false},
		{"something odd", IconError, TrayEncryptionOff, "something odd", false},
	}

	for _, tt := range tests {
		t.Run(tt.step, func(t *testing.T) {
			p, view, tray, _ := newTestPanel(Platform{})

			p.UpdateVPNState(eip.Data{eip.StatusStepKey: tt.step})

			if view.icon != tt.wantIcon || tray.icon != tt.wantIcon {
				t.Errorf("icon = %v/%v, want %v", view.icon, tray.icon, tt.wantIcon)
			}
			if tray.status != tt.wantTray {
				t.Errorf("tray status = %q, want %q", tray.status, tt.wantTray)
			}
			if view.label != tt.wantLabel {
				t.Errorf("label = %q, want %q", view.label, tt.wantLabel)
			}
			if tray.tooltip != tt.wantLabel {
				t.Errorf("tooltip = %q, want %q", tray.tooltip, tt.wantLabel)
			}
			if p.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", p.Enabled(), tt.wantEnabled)
			}
			if p.LastStep() != tt.step {
				t.Errorf("LastStep() = %q, want %q", p.LastStep(), tt.step)
			}
		})
	}
}

func TestPanel_ConnectedSetsToggleOn(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})

	p.UpdateVPNState(eip.Data{eip.StatusStepKey: eip.StatusConnected})

	if view.value != MaxValue || view.style != StyleOn {
		t.Errorf("value=%d style=%v, want 100 on", view.value, view.style)
	}
}

func TestPanel_AlreadyRunningIsDeferred(t *testing.T) {
	p, view, tray, sched := newTestPanel(Platform{})
	stops := &counter{}
	p.StopEIP.Connect(stops.inc)
	view.label = "previous"

	p.UpdateVPNState(eip.Data{eip.StatusStepKey: eip.StatusAlreadyRunning})

	if view.icon != IconError || tray.status != TrayEncryptionOff {
		t.Errorf("icon=%v tray=%q, want error icon and %q", view.icon, tray.status, TrayEncryptionOff)
	}
	if view.label != "previous" {
		t.Errorf("label changed to %q", view.label)
	}
	if stops.n != 0 || view.globalVisible {
		t.Fatal("side effects must wait for the next idle cycle")
	}
	if len(sched.queue) != 2 {
		t.Fatalf("scheduled %d callbacks, want 2", len(sched.queue))
	}

	sched.runAll()

	if stops.n != 1 {
		t.Errorf("StopEIP emitted %d times, want 1", stops.n)
	}
	if !view.globalVisible || view.global != AlreadyRunningMessage {
		t.Errorf("global status = %q visible=%v, want %q shown", view.global, view.globalVisible, AlreadyRunningMessage)
	}
	if !view.globalError {
		t.Error("already-running message should use error styling")
	}
}

func TestPanel_IconVariantsByPlatform(t *testing.T) {
	tests := []struct {
		name       string
		platform   Platform
		wantWindow Variant
		wantTray   Variant
	}{
		{"generic", Platform{}, VariantLight, VariantLight},
		{"linux", Platform{Linux: true}, VariantLight, VariantPlain},
		{"windows", Platform{Windows: true}, VariantPlain, VariantPlain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, view, tray, _ := newTestPanel(tt.platform)
			p.SetEIPStatusIcon(eip.StatusConnected)

			if view.variant != tt.wantWindow {
				t.Errorf("window variant = %v, want %v", view.variant, tt.wantWindow)
			}
			if tray.variant != tt.wantTray {
				t.Errorf("tray variant = %v, want %v", tray.variant, tt.wantTray)
			}
		})
	}
}

func TestPanel_UpdateVPNStatus(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})

	p.UpdateVPNStatus(eip.Data{eip.TunTapWriteKey: "1500", eip.TunTapReadKey: ""})

	if view.upload != "        1.50 Kb" {
		t.Errorf("upload = %q", view.upload)
	}
	if view.download != "        0.00 Kb" {
		t.Errorf("download = %q", view.download)
	}
}

func TestPanel_PreUpAndStatusBox(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})

	p.SetGlobalStatus("hello", false)
	if !view.globalVisible || view.global != "hello" {
		t.Fatalf("global status not shown")
	}

	p.SetStartStopEnabled(true)
	p.EIPPreUp()
	if view.globalVisible {
		t.Error("EIPPreUp should hide the status box")
	}
	if view.enabled {
		t.Error("EIPPreUp should disable the toggle")
	}

	p.SetProvider("demo.bitmask.net")
	if view.provider != "demo.bitmask.net" {
		t.Errorf("provider = %q", view.provider)
	}
}

func TestPanel_Toggle(t *testing.T) {
	p, view, _, _ := newTestPanel(Platform{})

	p.Toggle()
	if view.value != 0 {
		t.Error("Toggle() on a disabled panel should do nothing")
	}

	p.SetStartStopEnabled(true)
	p.Toggle()
	if p.Value() != MaxValue {
		t.Errorf("Value() = %d after Toggle, want 100", p.Value())
	}
	p.Toggle()
	if p.Value() != 0 {
		t.Errorf("Value() = %d after second Toggle, want 0", p.Value())
	}
}

func TestPanel_NilTray(t *testing.T) {
	p := New(&fakeView{}, nil, &queueScheduler{}, Platform{})

	p.UpdateVPNState(eip.Data{eip.StatusStepKey: eip.StatusConnected})
	p.SetEIPStatus("ON", false)
}
