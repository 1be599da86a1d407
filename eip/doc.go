// Package eip drives the encrypted internet proxy: an OpenVPN process
// started with a management interface, and a monitor that turns the
// management notifications into status data for the UI.
//
// # Status data
//
// Every update is delivered as a Data map. State updates carry the
// current step under StatusStepKey (WAIT, AUTH, GET_CONFIG, ASSIGN_IP,
// RECONNECTING, CONNECTED, ...). Throughput updates carry the tunnel
// byte counters under TunTapReadKey and TunTapWriteKey.
//
// # Already running
//
// If the management interface answers before the manager has launched
// anything, another OpenVPN owns it. The manager then reports the
// ALREADYRUNNING step and returns common.ErrAlreadyRunning.
package eip
