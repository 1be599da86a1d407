package eip

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
)

// Manager starts and stops the OpenVPN process.
type Manager struct {
	configPath     string
	managementAddr string
	monitor        *Monitor

	mu             sync.RWMutex
	cmd            *exec.Cmd
	running        bool
	startTime      time.Time
	onStateChanged func(Data)
	onStopped      func(err error)

	// command builds the process; replaced in tests.
	command func(name string, args ...string) *exec.Cmd
}

// NewManager creates a manager from the eip config section.
func NewManager(cfg config.EIPConfig) *Manager {
	addr := cfg.ManagementAddr
	if addr == "" {
		addr = common.DefaultManagementAddr
	}

	m := &Manager{
		configPath:     cfg.ConfigPath,
		managementAddr: addr,
		monitor:        NewMonitor(addr, common.MonitorInterval),
		command:        exec.Command,
	}
	m.monitor.SetOnStateChanged(m.stateChanged)
	return m
}

// SetOnStateChanged sets a callback for status step changes, including
// the synthetic ALREADYRUNNING step.
func (m *Manager) SetOnStateChanged(callback func(Data)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChanged = callback
}

// SetOnStatusChanged sets a callback for throughput updates.
func (m *Manager) SetOnStatusChanged(callback func(Data)) {
	m.monitor.SetOnStatusChanged(callback)
}

// SetOnStopped sets a callback run when the OpenVPN process exits.
func (m *Manager) SetOnStopped(callback func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStopped = callback
}

func (m *Manager) stateChanged(data Data) {
	m.mu.RLock()
	callback := m.onStateChanged
	m.mu.RUnlock()

	if callback != nil {
		callback(data)
	}
}

// ManagementAddr returns the management interface address.
func (m *Manager) ManagementAddr() string {
	return m.managementAddr
}

// IsRunning reports whether this manager owns a running process.
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Uptime returns how long the process has been running.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return 0
	}
	return time.Since(m.startTime)
}

// buildArgs returns the pkexec arguments for launching OpenVPN.
func (m *Manager) buildArgs() ([]string, error) {
	host, port, err := net.SplitHostPort(m.managementAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid management address %q: %w", m.managementAddr, err)
	}
	return []string{
		"openvpn",
		"--config", m.configPath,
		"--management", host, port,
		"--verb", "3",
	}, nil
}

// Start launches OpenVPN. If something already answers on the
// management address, the ALREADYRUNNING step is reported and
// common.ErrAlreadyRunning returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return common.ErrAlreadyStarted
	}
	m.mu.Unlock()

	if Ping(m.managementAddr, time.Second) {
		log.Warn("Management interface %s already answering", m.managementAddr)
		m.stateChanged(Data{StatusStepKey: StatusAlreadyRunning})
		return common.ErrAlreadyRunning
	}

	if m.configPath == "" {
		return errors.New("no OpenVPN configuration set")
	}
	if !common.FileExists(m.configPath) {
		return fmt.Errorf("OpenVPN configuration %s not found", m.configPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	args, err := m.buildArgs()
	if err != nil {
		return err
	}

	cmd := m.command("pkexec", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	log.Info("Starting OpenVPN: pkexec %s", strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start openvpn: %w", err)
	}
	log.Info("OpenVPN process started with PID %d", cmd.Process.Pid)

	m.mu.Lock()
	m.cmd = cmd
	m.running = true
	m.startTime = time.Now()
	m.mu.Unlock()

	m.stateChanged(Data{StatusStepKey: StatusWait})

	go monitorOutput(stdout)
	go monitorOutput(stderr)
	go m.wait(cmd)

	m.monitor.Start()
	return nil
}

func (m *Manager) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	if err != nil {
		log.Error("OpenVPN terminated with error: %v", err)
	} else {
		log.Info("OpenVPN terminated normally")
	}

	m.monitor.Stop()

	m.mu.Lock()
	m.running = false
	m.cmd = nil
	callback := m.onStopped
	m.mu.Unlock()

	if callback != nil {
		callback(err)
	}
}

// Stop asks OpenVPN to exit through the management interface, killing
// the process if that fails. OnStopped fires once it has exited.
func (m *Manager) Stop() error {
	m.mu.RLock()
	running := m.running
	cmd := m.cmd
	m.mu.RUnlock()

	if !running {
		return common.ErrNotRunning
	}

	log.Info("Stopping OpenVPN")
	if err := SendSignal(m.managementAddr, "SIGTERM"); err != nil {
		log.Warn("Management SIGTERM failed, killing process: %v", err)
		if cmd != nil && cmd.Process != nil {
			return cmd.Process.Kill()
		}
	}
	return nil
}

// monitorOutput logs the OpenVPN process output.
func monitorOutput(pipe io.Reader) {
	scanner := bufio.NewScanner(pipe)
	for scanner.Scan() {
		line := scanner.Text()
		log.Debug("OpenVPN: %s", line)

		switch {
		case strings.Contains(line, "Initialization Sequence Completed"):
			log.Info("Tunnel established")
		case strings.Contains(line, "AUTH_FAILED"):
			log.Error("Authentication failed")
		case strings.Contains(line, "Connection refused"):
			log.Error("Connection refused")
		}
	}
}
