package statuspanel

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/yllada/bitmask-client/eip"
)

// Icon is the connection state shown in the window and the tray.
type Icon int

const (
	IconConnecting Icon = iota
	IconConnected
	IconError
)

// String returns the icon's base name.
func (i Icon) String() string {
	switch i {
	case IconConnecting:
		return "conn_connecting"
	case IconConnected:
		return "conn_connected"
	default:
		return "conn_error"
	}
}

// Variant selects between the light and plain icon sets.
type Variant int

const (
	VariantLight Variant = iota
	// VariantPlain is the dark set, used on light backgrounds such as the
	// Linux tray.
	VariantPlain
)

// FileName returns the icon file name for i in variant v.
func (i Icon) FileName(v Variant) string {
	if v == VariantLight {
		return i.String() + "-light.png"
	}
	return i.String() + ".png"
}

// Platform holds the host OS flags the icon sets depend on.
type Platform struct {
	Linux   bool
	Windows bool
}

// CurrentPlatform returns the flags for the running OS.
func CurrentPlatform() Platform {
	return Platform{
		Linux:   runtime.GOOS == "linux",
		Windows: runtime.GOOS == "windows",
	}
}

// IconVariants returns the window and tray variants for p.
//
//	generic: light window, light tray
//	linux:   light window, plain tray
//	windows: plain window, plain tray
func IconVariants(p Platform) (window, tray Variant) {
	switch {
	case p.Linux:
		return VariantLight, VariantPlain
	case p.Windows:
		return VariantPlain, VariantPlain
	default:
		return VariantLight, VariantLight
	}
}

// Tray messages.
const (
	TrayTurningOn     = "Turning ON"
	TrayEncryptionOn  = "Encryption is ON"
	TrayEncryptionOff = "Encryption is OFF"
)

// AlreadyRunningMessage is shown when another OpenVPN owns the interface.
const AlreadyRunningMessage = "Unable to start VPN, it's already running."

// Status is the display for one status step.
type Status struct {
	Icon        Icon
	TrayMessage string
}

// MapStatus returns the icon and tray message for step.
func MapStatus(step string) Status {
	switch step {
	case eip.StatusWait, eip.StatusAuth, eip.StatusGetConfig, eip.StatusReconnecting, eip.StatusAssignIP:
		return Status{Icon: IconConnecting, TrayMessage: TrayTurningOn}
	case eip.StatusConnected:
		return Status{Icon: IconConnected, TrayMessage: TrayEncryptionOn}
	default:
		return Status{Icon: IconError, TrayMessage: TrayEncryptionOff}
	}
}

// StatusLabel returns the status label for step. Steps without a
// friendlier text are shown as-is.
func StatusLabel(step string) string {
	switch step {
	case eip.StatusConnected:
		return "ON"
	case eip.StatusAuth:
		return "Authenticating..."
	case eip.StatusGetConfig:
		return "Retrieving configuration..."
	case eip.StatusWait:
		return "Waiting to start..."
	case eip.StatusAssignIP:
		return "Assigning IP"
	default:
		return step
	}
}

// FormatThroughput renders a byte counter as kilobytes. Empty and
// unparseable counters render as zero.
func FormatThroughput(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "0"
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		n = 0
	}
	return fmt.Sprintf("%12.2f Kb", n/1000.0)
}
