package eip

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yllada/bitmask-client/common"
)

var log = common.NamedLogger("eip")

// Monitor follows an OpenVPN management interface and reports state and
// throughput changes. It reconnects until stopped.
type Monitor struct {
	addr     string
	interval time.Duration

	mu              sync.RWMutex
	running         bool
	stopChan        chan struct{}
	done            chan struct{}
	conn            net.Conn
	counters        Data
	lastStep        string
	onStateChanged  func(Data)
	onStatusChanged func(Data)
}

// NewMonitor creates a monitor for the management interface at addr,
// polling throughput every interval.
func NewMonitor(addr string, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = common.MonitorInterval
	}
	return &Monitor{
		addr:     addr,
		interval: interval,
		counters: Data{TunTapReadKey: "0", TunTapWriteKey: "0"},
	}
}

// SetOnStateChanged sets a callback for status step changes.
func (m *Monitor) SetOnStateChanged(callback func(Data)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChanged = callback
}

// SetOnStatusChanged sets a callback for throughput updates.
func (m *Monitor) SetOnStatusChanged(callback func(Data)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatusChanged = callback
}

// Start begins following the management interface.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	stop := make(chan struct{})
	done := make(chan struct{})
	m.stopChan = stop
	m.done = done
	m.mu.Unlock()

	log.Info("Monitor started for %s", m.addr)
	go m.runLoop(stop, done)
}

// Stop stops the monitor and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	if m.conn != nil {
		m.conn.Close()
	}
	done := m.done
	m.mu.Unlock()

	<-done
	log.Info("Monitor stopped")
}

// IsRunning returns whether the monitor is active.
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastStep returns the most recent status step seen.
func (m *Monitor) LastStep() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastStep
}

func (m *Monitor) runLoop(stop <-chan struct{}, done chan struct{}) {
	defer close(done)

	for {
		conn, err := net.DialTimeout("tcp", m.addr, common.ManagementTimeout)
		if err == nil {
			m.follow(conn, stop)
		} else {
			log.Debug("Management interface not reachable: %v", err)
		}

		select {
		case <-stop:
			return
		case <-time.After(m.interval):
		}
	}
}

func (m *Monitor) follow(conn net.Conn, stop <-chan struct{}) {
	m.mu.Lock()
	select {
	case <-stop:
		m.mu.Unlock()
		conn.Close()
		return
	default:
	}
	m.conn = conn
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
		conn.Close()
	}()

	seconds := int(m.interval / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if _, err := fmt.Fprintf(conn, "state on\nstate\nbytecount %d\n", seconds); err != nil {
		log.Warn("Management handshake failed: %v", err)
		return
	}

	pollDone := make(chan struct{})
	defer close(pollDone)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-pollDone:
				return
			case <-stop:
				return
			case <-ticker.C:
				if _, err := conn.Write([]byte("status\n")); err != nil {
					return
				}
			}
		}
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		m.handle(ParseLine(scanner.Text()))
	}
}

func (m *Monitor) handle(ev Event) {
	switch ev.Kind {
	case EventState:
		m.mu.Lock()
		changed := ev.Step != m.lastStep
		m.lastStep = ev.Step
		callback := m.onStateChanged
		m.mu.Unlock()

		if changed {
			log.Info("State changed: %s", ev.Step)
		}
		if callback != nil {
			data := Data{StatusStepKey: ev.Step}
			if ev.LocalIP != "" {
				data[LocalIPKey] = ev.LocalIP
			}
			if ev.RemoteIP != "" {
				data[RemoteIPKey] = ev.RemoteIP
			}
			callback(data)
		}

	case EventByteCount:
		m.updateCounters(func(c Data) {
			c[TunTapReadKey] = strconv.FormatUint(ev.Bytes[0], 10)
			c[TunTapWriteKey] = strconv.FormatUint(ev.Bytes[1], 10)
		}, true)

	case EventTunTapRead:
		m.updateCounters(func(c Data) {
			c[TunTapReadKey] = strconv.FormatUint(ev.Bytes[0], 10)
		}, false)

	case EventTunTapWrite:
		m.updateCounters(func(c Data) {
			c[TunTapWriteKey] = strconv.FormatUint(ev.Bytes[0], 10)
		}, true)
	}
}

func (m *Monitor) updateCounters(apply func(Data), notify bool) {
	m.mu.Lock()
	apply(m.counters)
	snapshot := m.counters.clone()
	callback := m.onStatusChanged
	m.mu.Unlock()

	if notify && callback != nil {
		callback(snapshot)
	}
}

// Ping reports whether a management interface answers at addr.
func Ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// QueryState asks the management interface at addr for its current state.
func QueryState(ctx context.Context, addr string) (Data, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrManagement, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(common.ManagementTimeout))
	}

	if _, err := conn.Write([]byte("state\nstatus\n")); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrManagement, err)
	}

	data := Data{TunTapReadKey: "0", TunTapWriteKey: "0"}
	ends := 0
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() && ends < 2 {
		ev := ParseLine(scanner.Text())
		switch ev.Kind {
		case EventState:
			data[StatusStepKey] = ev.Step
			if ev.LocalIP != "" {
				data[LocalIPKey] = ev.LocalIP
			}
		case EventTunTapRead:
			data[TunTapReadKey] = strconv.FormatUint(ev.Bytes[0], 10)
		case EventTunTapWrite:
			data[TunTapWriteKey] = strconv.FormatUint(ev.Bytes[0], 10)
		case EventEnd:
			ends++
		}
	}
	if data.Step() == "" {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrManagement, err)
		}
		return nil, fmt.Errorf("%w: no state reported", common.ErrManagement)
	}
	return data, nil
}

// SendSignal asks the OpenVPN process behind addr to raise signal.
func SendSignal(addr, signal string) error {
	conn, err := net.DialTimeout("tcp", addr, common.ManagementTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrManagement, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(common.ManagementTimeout))

	if _, err := fmt.Fprintf(conn, "signal %s\n", signal); err != nil {
		return fmt.Errorf("%w: %v", common.ErrManagement, err)
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "SUCCESS:") {
			return nil
		}
		if strings.HasPrefix(line, "ERROR:") {
			return fmt.Errorf("%w: %s", common.ErrManagement, line)
		}
	}
	return fmt.Errorf("%w: no reply to signal", common.ErrManagement)
}
