package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Mail.DBPath = filepath.Join(t.TempDir(), "soledad.db")
	cfg.Mail.ListenAddr = "127.0.0.1:0"
	cfg.EIP.ManagementAddr = "127.0.0.1:1"
	return cfg
}

func TestOpen_WiresComponents(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig(t)

	s, err := Open(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close(time.Second)

	if s.Store == nil || s.Mail == nil || s.MailService == nil || s.EIP == nil || s.Keys == nil {
		t.Fatalf("Open() left components unset: %+v", s)
	}
	if s.EIP.ManagementAddr() != cfg.EIP.ManagementAddr {
		t.Errorf("EIP management addr = %q, want %q", s.EIP.ManagementAddr(), cfg.EIP.ManagementAddr)
	}
}

func TestOpen_ReopensWithSamePassphrase(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig(t)
	cfg.Mail.UserID = "alice@example.org"
	dir := t.TempDir()

	first, err := Open(cfg, dir)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	if err := first.Close(time.Second); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := Open(cfg, dir)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	second.Close(time.Second)
}

func TestStartMail(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		wantRunning bool
	}{
		{name: "no account", userID: "", wantRunning: false},
		{name: "offline account", userID: "alice@example.org", wantRunning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyring.MockInit()
			cfg := testConfig(t)
			cfg.Mail.UserID = tt.userID
			cfg.Mail.Offline = true

			s, err := Open(cfg, t.TempDir())
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer s.Close(time.Second)

			if err := s.StartMail(context.Background()); err != nil {
				t.Fatalf("StartMail() error = %v", err)
			}
			if got := s.Mail.Running(); got != tt.wantRunning {
				t.Errorf("Mail.Running() = %v, want %v", got, tt.wantRunning)
			}
		})
	}
}

func TestStartMail_Twice(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig(t)
	cfg.Mail.UserID = "alice@example.org"
	cfg.Mail.Offline = true

	s, err := Open(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close(time.Second)

	if err := s.StartMail(context.Background()); err != nil {
		t.Fatalf("StartMail() error = %v", err)
	}
	if err := s.StartMail(context.Background()); !errors.Is(err, common.ErrAlreadyStarted) {
		t.Errorf("second StartMail() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestClose_StopsMail(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig(t)
	cfg.Mail.UserID = "alice@example.org"
	cfg.Mail.Offline = true

	s, err := Open(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.StartMail(context.Background()); err != nil {
		t.Fatalf("StartMail() error = %v", err)
	}
	if err := s.Close(time.Second); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.Mail.Running() {
		t.Error("mail still running after Close")
	}
}
