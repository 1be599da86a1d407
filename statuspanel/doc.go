// Package statuspanel holds the EIP status panel logic independent of any
// toolkit: the on/off toggle state machine, the mapping from status steps
// to icons and messages, throughput labels, and the signals the rest of
// the application connects to.
//
// A toolkit supplies a View (and optionally a Tray) and forwards the
// toggle's value-changed and released events to the Panel. All Panel
// methods must be called from the UI thread; work from other goroutines
// goes through a Scheduler.
package statuspanel
