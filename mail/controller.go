package mail

import (
	"context"
	"errors"
	"sync"

	"github.com/yllada/bitmask-client/common"
)

// IMAPController starts and stops the IMAP service on behalf of the UI.
type IMAPController struct {
	backend    Backend
	soledad    Soledad
	keymanager Keymanager
	log        common.Logger

	mu      sync.Mutex
	session *Session
	userID  string
}

// NewIMAPController creates a controller bound to the given store and
// key manager. Neither is replaced for the controller's lifetime.
func NewIMAPController(backend Backend, soledad Soledad, keymanager Keymanager) *IMAPController {
	return &IMAPController{
		backend:    backend,
		soledad:    soledad,
		keymanager: keymanager,
		log:        common.NamedLogger("mail"),
	}
}

// Start brings the service up for userID. Unless offline, the fetch loop
// is started as well. Backend errors are returned unchanged.
func (c *IMAPController) Start(ctx context.Context, userID string, offline bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return common.ErrAlreadyStarted
	}

	c.log.Info("Starting IMAP service for %s (offline=%v)", userID, offline)
	session, err := c.backend.StartIMAPService(ctx, c.soledad, c.keymanager, userID, offline)
	if err != nil {
		return err
	}
	if session == nil {
		return errors.New("mail backend returned no session")
	}

	c.session = session
	c.userID = userID

	if !offline && session.Incoming != nil {
		session.Incoming.StartFetchingLoop()
	}
	return nil
}

// Stop tears down the running service. The returned channel is closed
// once teardown completes, or immediately if nothing is running.
func (c *IMAPController) Stop() <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	signal := func() { once.Do(func() { close(done) }) }

	c.mu.Lock()
	session := c.session
	c.session = nil
	userID := c.userID
	c.userID = ""
	c.mu.Unlock()

	if session == nil {
		signal()
		return done
	}

	c.log.Info("Stopping IMAP service for %s", userID)
	if session.Incoming != nil {
		session.Incoming.StopFetchingLoop()
	}
	if session.Port != nil {
		if err := session.Port.StopListening(); err != nil {
			c.log.Warn("Stop listening: %v", err)
		}
	}
	if session.Factory == nil {
		signal()
		return done
	}
	session.Factory.CloseAccount()
	session.Factory.Stop(func() {
		c.log.Info("IMAP service stopped")
		signal()
	})
	return done
}

// FetchNow triggers an immediate fetch if the service is running.
func (c *IMAPController) FetchNow() {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil || session.Incoming == nil {
		c.log.Debug("FetchNow ignored, service not running")
		return
	}
	session.Incoming.Fetch()
}

// Running reports whether a session is active.
func (c *IMAPController) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}
