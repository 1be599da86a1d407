package imap

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yllada/bitmask-client/common"
)

type relaySession struct {
	client   net.Conn
	upstream net.Conn
}

// Factory owns the user's account and the sessions relayed for it.
type Factory struct {
	userID      string
	stopTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	sessions map[string]*relaySession
	wg       sync.WaitGroup
}

// NewFactory creates a factory for userID. Stop waits at most stopTimeout
// for sessions to drain.
func NewFactory(userID string, stopTimeout time.Duration) *Factory {
	return &Factory{
		userID:      userID,
		stopTimeout: stopTimeout,
		sessions:    make(map[string]*relaySession),
	}
}

// register records a new client session. It returns ErrAccountClosed
// once the account is closed.
func (f *Factory) register(id string, client net.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return fmt.Errorf("session for %s: %w", f.userID, common.ErrAccountClosed)
	}
	f.sessions[id] = &relaySession{client: client}
	f.wg.Add(1)
	return nil
}

func (f *Factory) attach(id string, upstream net.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		s.upstream = upstream
	}
}

func (f *Factory) unregister(id string) {
	f.mu.Lock()
	_, ok := f.sessions[id]
	delete(f.sessions, id)
	f.mu.Unlock()

	if ok {
		f.wg.Done()
	}
}

// ActiveSessions returns the number of relayed sessions.
func (f *Factory) ActiveSessions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// CloseAccount refuses any further sessions for the account.
func (f *Factory) CloseAccount() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.closed {
		log.Info("Closing account %s", f.userID)
	}
	f.closed = true
}

// Stop closes every relayed session and calls done once they have
// drained or the stop timeout expires.
func (f *Factory) Stop(done func()) {
	f.mu.Lock()
	f.closed = true
	for _, s := range f.sessions {
		s.client.Close()
		if s.upstream != nil {
			s.upstream.Close()
		}
	}
	f.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(drained)
	}()

	go func() {
		select {
		case <-drained:
		case <-time.After(f.stopTimeout):
			log.Warn("Timed out waiting for %d sessions to drain", f.ActiveSessions())
		}
		if done != nil {
			done()
		}
	}()
}
