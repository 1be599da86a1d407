package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yllada/bitmask-client/common"
)

func TestLoadFrom_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Mail.ListenAddr != common.DefaultIMAPListenAddr {
		t.Errorf("ListenAddr = %v, want %v", cfg.Mail.ListenAddr, common.DefaultIMAPListenAddr)
	}
	if cfg.Mail.FetchInterval != common.DefaultFetchInterval {
		t.Errorf("FetchInterval = %v, want %v", cfg.Mail.FetchInterval, common.DefaultFetchInterval)
	}
	if cfg.EIP.ManagementAddr != common.DefaultManagementAddr {
		t.Errorf("ManagementAddr = %v, want %v", cfg.EIP.ManagementAddr, common.DefaultManagementAddr)
	}
	if !common.FileExists(path) {
		t.Error("LoadFrom should write the default file")
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %v, want %v", cfg.Path(), path)
	}
}

func TestLoadFrom_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.path = path
	cfg.Mail.UserID = "alice@example.org"
	cfg.Mail.IMAPHost = "imap.example.org"
	cfg.Mail.Offline = true
	cfg.EIP.Provider = "example.org"
	cfg.UI.Theme = common.ThemeDark
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if loaded.Mail.UserID != "alice@example.org" || !loaded.Mail.Offline {
		t.Errorf("mail settings not preserved: %+v", loaded.Mail)
	}
	if loaded.EIP.Provider != "example.org" {
		t.Errorf("Provider = %v, want example.org", loaded.EIP.Provider)
	}
	if loaded.UI.Theme != common.ThemeDark {
		t.Errorf("Theme = %v, want dark", loaded.UI.Theme)
	}
	if got := loaded.IMAPAddr(); got != "imap.example.org:993" {
		t.Errorf("IMAPAddr() = %v, want imap.example.org:993", got)
	}
}

func TestLoadFrom_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("mail:\n  bogus: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if !errors.Is(err, common.ErrConfigLoad) {
		t.Errorf("LoadFrom() error = %v, want ErrConfigLoad", err)
	}
}

func TestValidate_FallsBackToDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UI.Theme = "purple"
	cfg.Mail.FetchInterval = 10 * time.Millisecond
	cfg.Mail.IMAPPort = 70000
	cfg.Mail.ListenAddr = "not-an-address"
	cfg.EIP.ManagementAddr = ""

	cfg.validate()

	defaults := DefaultConfig()
	if cfg.UI.Theme != defaults.UI.Theme {
		t.Errorf("Theme = %v, want %v", cfg.UI.Theme, defaults.UI.Theme)
	}
	if cfg.Mail.FetchInterval != defaults.Mail.FetchInterval {
		t.Errorf("FetchInterval = %v, want %v", cfg.Mail.FetchInterval, defaults.Mail.FetchInterval)
	}
	if cfg.Mail.IMAPPort != defaults.Mail.IMAPPort {
		t.Errorf("IMAPPort = %v, want %v", cfg.Mail.IMAPPort, defaults.Mail.IMAPPort)
	}
	if cfg.Mail.ListenAddr != defaults.Mail.ListenAddr {
		t.Errorf("ListenAddr = %v, want %v", cfg.Mail.ListenAddr, defaults.Mail.ListenAddr)
	}
	if cfg.EIP.ManagementAddr != defaults.EIP.ManagementAddr {
		t.Errorf("ManagementAddr = %v, want %v", cfg.EIP.ManagementAddr, defaults.EIP.ManagementAddr)
	}
}

func TestMailDBPath_Override(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mail.DBPath = "/tmp/custom.db"

	got, err := cfg.MailDBPath()
	if err != nil {
		t.Fatalf("MailDBPath() error = %v", err)
	}
	if got != "/tmp/custom.db" {
		t.Errorf("MailDBPath() = %v, want /tmp/custom.db", got)
	}
}
