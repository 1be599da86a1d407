package statuspanel

import "math"

// DragThreshold is how far, in pixels, a press must move along the track
// before it counts as a drag instead of a click.
const DragThreshold = 4

// Pointer turns press, motion and release events on the toggle track into
// panel input. A press released in place is a click and goes through
// OnValueChanged. A press that moved past DragThreshold is a drag and goes
// through OnReleased.
type Pointer struct {
	panel    *Panel
	pressed  bool
	dragging bool
	originX  float64
}

// NewPointer creates a pointer tracker for panel.
func NewPointer(panel *Panel) *Pointer {
	return &Pointer{panel: panel}
}

// Held reports whether the handle is being dragged.
func (t *Pointer) Held() bool {
	return t.pressed && t.dragging
}

// Press starts tracking at x. It reports false when the toggle is disabled.
func (t *Pointer) Press(x float64) bool {
	if !t.panel.Enabled() {
		return false
	}
	t.pressed = true
	t.dragging = false
	t.originX = x
	return true
}

// Motion records a pointer move to x and reports whether the press is a drag.
func (t *Pointer) Motion(x float64) bool {
	if !t.pressed {
		return false
	}
	if !t.dragging && math.Abs(x-t.originX) >= DragThreshold {
		t.dragging = true
	}
	return t.dragging
}

// Release ends the press with the toggle at value.
func (t *Pointer) Release(value int) {
	if !t.pressed {
		return
	}
	dragging := t.dragging
	t.reset()

	if dragging {
		t.panel.OnReleased(value)
	} else {
		t.panel.OnValueChanged(value, false)
	}
}

// Cancel ends a press the toolkit took away. A drag in progress snaps as
// if released at value. A plain press is dropped.
func (t *Pointer) Cancel(value int) {
	dragging := t.pressed && t.dragging
	t.reset()
	if dragging {
		t.panel.OnReleased(value)
	}
}

func (t *Pointer) reset() {
	t.pressed = false
	t.dragging = false
}

// TrackValue maps an x offset on a track of the given width to a toggle value.
func TrackValue(x, width float64) int {
	if width <= 0 {
		return 0
	}
	v := int(math.Round(x / width * MaxValue))
	return max(0, min(MaxValue, v))
}
