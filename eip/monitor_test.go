package eip

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yllada/bitmask-client/common"
)

// fakeManagement serves one management session with a scripted reply.
func fakeManagement(t *testing.T, script string) (string, <-chan string) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	commands := make(chan string, 16)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				c.Write([]byte(">INFO:OpenVPN Management Interface Version 3\r\n"))
				c.Write([]byte(script))
				scanner := bufio.NewScanner(c)
				for scanner.Scan() {
					select {
					case commands <- scanner.Text():
					default:
					}
					if strings.HasPrefix(scanner.Text(), "signal ") {
						c.Write([]byte("SUCCESS: signal SIGTERM thrown\r\n"))
					}
				}
			}(conn)
		}
	}()
	return l.Addr().String(), commands
}

type recorder struct {
	mu     sync.Mutex
	states []string
	status []Data
}

func (r *recorder) state(d Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, d.Step())
}

func (r *recorder) stat(d Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = append(r.status, d)
}

func (r *recorder) snapshot() ([]string, []Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...), append([]Data(nil), r.status...)
}

func TestMonitor_FollowsNotifications(t *testing.T) {
	addr, commands := fakeManagement(t,
		">STATE:1700000000,AUTH,,,\r\n"+
			">STATE:1700000001,CONNECTED,SUCCESS,10.8.0.2,198.51.100.1\r\n"+
			">BYTECOUNT:3000,1500\r\n")

	rec := &recorder{}
	m := NewMonitor(addr, 50*time.Millisecond)
	m.SetOnStateChanged(rec.state)
	m.SetOnStatusChanged(rec.stat)
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		states, status := rec.snapshot()
		if len(states) >= 2 && len(status) >= 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	states, status := rec.snapshot()
	if len(states) < 2 || states[0] != StatusAuth || states[1] != StatusConnected {
		t.Errorf("states = %v, want [AUTH CONNECTED ...]", states)
	}
	if len(status) == 0 {
		t.Fatal("no throughput update received")
	}
	if status[0][TunTapReadKey] != "3000" || status[0][TunTapWriteKey] != "1500" {
		t.Errorf("status = %v", status[0])
	}
	if m.LastStep() != StatusConnected {
		t.Errorf("LastStep() = %q, want CONNECTED", m.LastStep())
	}

	select {
	case cmd := <-commands:
		if cmd != "state on" {
			t.Errorf("first command = %q, want %q", cmd, "state on")
		}
	case <-time.After(time.Second):
		t.Error("monitor sent no commands")
	}
}

func TestMonitor_StartStop(t *testing.T) {
	m := NewMonitor("127.0.0.1:1", 20*time.Millisecond)

	m.Start()
	m.Start()
	if !m.IsRunning() {
		t.Fatal("IsRunning() = false after Start")
	}

	m.Stop()
	m.Stop()
	if m.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
}

func TestQueryState(t *testing.T) {
	addr, _ := fakeManagement(t,
		"1700000000,CONNECTED,SUCCESS,10.8.0.2,198.51.100.1\r\nEND\r\n"+
			"OpenVPN STATISTICS\r\nTUN/TAP read bytes,2000\r\nTUN/TAP write bytes,1000\r\nEND\r\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := QueryState(ctx, addr)
	if err != nil {
		t.Fatalf("QueryState() error = %v", err)
	}
	if data.Step() != StatusConnected {
		t.Errorf("step = %q, want CONNECTED", data.Step())
	}
	if data[TunTapReadKey] != "2000" || data[TunTapWriteKey] != "1000" {
		t.Errorf("counters = %v", data)
	}
	if data[LocalIPKey] != "10.8.0.2" {
		t.Errorf("local ip = %q", data[LocalIPKey])
	}
}

func TestQueryState_Unreachable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	_, err = QueryState(context.Background(), addr)
	if !errors.Is(err, common.ErrManagement) {
		t.Errorf("QueryState() error = %v, want ErrManagement", err)
	}
}

func TestSendSignal(t *testing.T) {
	addr, commands := fakeManagement(t, "")

	if err := SendSignal(addr, "SIGTERM"); err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}
	select {
	case cmd := <-commands:
		if cmd != "signal SIGTERM" {
			t.Errorf("command = %q", cmd)
		}
	case <-time.After(time.Second):
		t.Error("no command received")
	}
}
