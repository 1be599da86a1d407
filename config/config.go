// Package config provides configuration management for the Bitmask client.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/bitmask-client/common"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	Mail MailConfig `yaml:"mail"`
	EIP  EIPConfig  `yaml:"eip"`
	UI   UIConfig   `yaml:"ui"`
	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`

	path string
}

// MailConfig holds settings for the mail service.
type MailConfig struct {
	// UserID is the account in the form "user@provider".
	UserID string `yaml:"user_id"`
	// IMAPHost is the provider's IMAP server.
	IMAPHost string `yaml:"imap_host"`
	// IMAPPort is the provider's IMAP port.
	IMAPPort int `yaml:"imap_port"`
	// TLS selects implicit TLS; otherwise STARTTLS is used.
	TLS bool `yaml:"tls"`
	// ListenAddr is where local mail clients connect.
	ListenAddr string `yaml:"listen_addr"`
	// FetchInterval is the incoming mail poll period.
	FetchInterval time.Duration `yaml:"fetch_interval"`
	// Offline starts the service without the fetch loop.
	Offline bool `yaml:"offline"`
	// DBPath overrides the location of the local document store.
	DBPath string `yaml:"db_path,omitempty"`
}

// EIPConfig holds settings for the encrypted internet proxy.
type EIPConfig struct {
	// ConfigPath is the OpenVPN configuration file.
	ConfigPath string `yaml:"config_path"`
	// ManagementAddr is the OpenVPN management interface address.
	ManagementAddr string `yaml:"management_addr"`
	// Provider is shown in the status panel.
	Provider string `yaml:"provider"`
}

// UIConfig holds settings for the graphical interface.
type UIConfig struct {
	// MinimizeToTray hides the window instead of quitting.
	MinimizeToTray bool `yaml:"minimize_to_tray"`
	// ShowNotifications enables desktop notifications for EIP events.
	ShowNotifications bool `yaml:"show_notifications"`
	// Theme sets the color theme: "light", "dark", or "auto".
	Theme string `yaml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mail: MailConfig{
			IMAPPort:      993,
			TLS:           true,
			ListenAddr:    common.DefaultIMAPListenAddr,
			FetchInterval: common.DefaultFetchInterval,
		},
		EIP: EIPConfig{
			ManagementAddr: common.DefaultManagementAddr,
		},
		UI: UIConfig{
			MinimizeToTray:    true,
			ShowNotifications: true,
			Theme:             common.ThemeAuto,
		},
		LogLevel: "info",
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it is created with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.path = configPath
		if err := cfg.Save(); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("error opening configuration: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	config.path = configPath

	config.validate()
	return config, nil
}

// validate resets out-of-range values to their defaults.
func (c *Config) validate() {
	defaults := DefaultConfig()

	if !common.StringInSlice(c.UI.Theme, []string{common.ThemeAuto, common.ThemeLight, common.ThemeDark}) {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Mail.FetchInterval < time.Second {
		c.Mail.FetchInterval = defaults.Mail.FetchInterval
	}
	if c.Mail.IMAPPort <= 0 || c.Mail.IMAPPort > 65535 {
		c.Mail.IMAPPort = defaults.Mail.IMAPPort
	}
	if _, _, err := net.SplitHostPort(c.Mail.ListenAddr); err != nil {
		c.Mail.ListenAddr = defaults.Mail.ListenAddr
	}
	if _, _, err := net.SplitHostPort(c.EIP.ManagementAddr); err != nil {
		c.EIP.ManagementAddr = defaults.EIP.ManagementAddr
	}
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.path
}

// MailDBPath returns the document store location, defaulting to the
// data directory.
func (c *Config) MailDBPath() (string, error) {
	if c.Mail.DBPath != "" {
		return c.Mail.DBPath, nil
	}
	dataDir, err := common.GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, common.MailDBFileName), nil
}

// IMAPAddr returns the provider address as host:port.
func (c *Config) IMAPAddr() string {
	return net.JoinHostPort(c.Mail.IMAPHost, fmt.Sprint(c.Mail.IMAPPort))
}

// Save saves the configuration to its file.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		if configPath, err = DefaultPath(); err != nil {
			return err
		}
		c.path = configPath
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error serializing configuration: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}

	return nil
}

// DefaultPath returns ~/.config/bitmask/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", common.ConfigDirName, common.ConfigFileName), nil
}
