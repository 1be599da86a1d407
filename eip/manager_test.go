package eip

import (
	"context"
	"errors"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestManager_BuildArgs(t *testing.T) {
	m := NewManager(config.EIPConfig{ConfigPath: "/etc/bitmask/eip.ovpn", ManagementAddr: "127.0.0.1:7505"})

	got, err := m.buildArgs()
	if err != nil {
		t.Fatalf("buildArgs() error = %v", err)
	}
	want := []string{"openvpn", "--config", "/etc/bitmask/eip.ovpn", "--management", "127.0.0.1", "7505", "--verb", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs() = %v, want %v", got, want)
	}
}

func TestManager_DefaultManagementAddr(t *testing.T) {
	m := NewManager(config.EIPConfig{})
	if m.ManagementAddr() != common.DefaultManagementAddr {
		t.Errorf("ManagementAddr() = %q, want %q", m.ManagementAddr(), common.DefaultManagementAddr)
	}
}

func TestManager_StartAlreadyRunning(t *testing.T) {
	addr, _ := fakeManagement(t, "")
	m := NewManager(config.EIPConfig{ConfigPath: "/nonexistent.ovpn", ManagementAddr: addr})

	var got []string
	m.SetOnStateChanged(func(d Data) { got = append(got, d.Step()) })

	err := m.Start(context.Background())
	if !errors.Is(err, common.ErrAlreadyRunning) {
		t.Fatalf("Start() error = %v, want ErrAlreadyRunning", err)
	}
	if len(got) != 1 || got[0] != StatusAlreadyRunning {
		t.Errorf("states = %v, want [ALREADYRUNNING]", got)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true after refused start")
	}
}

func TestManager_StartMissingConfig(t *testing.T) {
	m := NewManager(config.EIPConfig{ConfigPath: filepath.Join(t.TempDir(), "missing.ovpn"), ManagementAddr: freeAddr(t)})

	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() should fail without a config file")
	}
}

func TestManager_ProcessLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "eip.ovpn")
	if err := os.WriteFile(cfgPath, []byte("client\n"), 0600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(config.EIPConfig{ConfigPath: cfgPath, ManagementAddr: freeAddr(t)})
	m.command = func(string, ...string) *exec.Cmd {
		return exec.Command("sh", "-c", "echo 'Initialization Sequence Completed'; sleep 0.2")
	}

	var states []string
	m.SetOnStateChanged(func(d Data) { states = append(states, d.Step()) })
	stopped := make(chan error, 1)
	m.SetOnStopped(func(err error) { stopped <- err })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !m.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := m.Start(context.Background()); !errors.Is(err, common.ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("process exit error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("OnStopped not called")
	}

	if m.IsRunning() {
		t.Error("IsRunning() = true after process exit")
	}
	if len(states) == 0 || states[0] != StatusWait {
		t.Errorf("states = %v, want WAIT first", states)
	}
	if err := m.Stop(); !errors.Is(err, common.ErrNotRunning) {
		t.Errorf("Stop() after exit error = %v, want ErrNotRunning", err)
	}
}
