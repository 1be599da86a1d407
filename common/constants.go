// Package common provides shared constants, types, and utilities
// used across the Bitmask client.
package common

import "time"

// Application metadata.
const (
	// AppID is the unique identifier for the application.
	AppID = "se.leap.bitmask"
	// AppName is the display name of the application.
	AppName = "Bitmask"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "bitmask"
)

// File names used by the application.
const (
	ConfigFileName      = "config.yaml"
	MailDBFileName      = "soledad.db"
	CredentialsFileName = ".credentials"
	LogFileName         = "bitmask.log"
)

// Mail service defaults.
const (
	// DefaultIMAPListenAddr is where local mail clients connect.
	DefaultIMAPListenAddr = "127.0.0.1:1984"
	// DefaultFetchInterval is how often the incoming mail loop polls the provider.
	DefaultFetchInterval = 60 * time.Second
	// MailStopTimeout bounds how long a stopping factory waits for relayed sessions.
	MailStopTimeout = 5 * time.Second
	// DialTimeout is the timeout for connections to the provider.
	DialTimeout = 30 * time.Second
	// DialRetries is how many times a provider dial is retried.
	DialRetries = 3
)

// EIP defaults.
const (
	// DefaultManagementAddr is the OpenVPN management interface address.
	DefaultManagementAddr = "127.0.0.1:7505"
	// ManagementTimeout is the timeout for management interface commands.
	ManagementTimeout = 5 * time.Second
	// MonitorInterval is how often bytecount notifications are requested.
	MonitorInterval = 1 * time.Second
)

// UI constants.
const (
	// DefaultWindowWidth is the default main window width.
	DefaultWindowWidth = 420
	// DefaultWindowHeight is the default main window height.
	DefaultWindowHeight = 260
	// StatusIconSize is the size of the window status icon.
	StatusIconSize = 32
	// TrayIconSize is the size of the system tray icon.
	TrayIconSize = 22
)

// Theme values.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)
