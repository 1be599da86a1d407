// Package ui provides the graphical user interface for the Bitmask client.
//
// This package implements the GTK4-based user interface including:
//
//   - Main window hosting the Encrypted Internet status panel
//   - System tray indicator mirroring the panel state
//   - Preferences dialog
//   - Desktop notifications over D-Bus
//
// # Architecture
//
// The UI is built on GTK4 using the gotk4 bindings. Key components:
//
//   - Application: GTK application lifecycle and service wiring
//   - MainWindow: primary window with the status panel and a status bar
//   - StatusWidget: the statuspanel.View backed by GTK widgets
//   - TrayIndicator: the statuspanel.Tray backed by systray
//
// The toggle state machine lives in the statuspanel package. This package
// only renders it and forwards user input.
//
// # Thread Safety
//
// GTK operations must execute on the main thread. EIP monitor callbacks
// and mail service results arrive on background goroutines and are
// scheduled onto the main loop with glib.IdleAdd.
//
// # File Organization
//
//   - app.go: Application lifecycle and EIP/mail wiring
//   - main_window.go: Main window layout and menu
//   - status_widget.go: Status panel widgets
//   - tray.go: System tray indicator
//   - icons.go: Icon generation for the panel and tray
//   - styles.go: CSS styling including toggle style classes
//   - notifications.go: Desktop notification integration
//   - preferences.go: Settings dialog
package ui
