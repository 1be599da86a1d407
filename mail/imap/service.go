package imap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
	"github.com/yllada/bitmask-client/mail"
)

// DefaultMailbox is the mailbox polled for new messages.
const DefaultMailbox = "INBOX"

// Options configures a Service.
type Options struct {
	Host          string
	Port          int
	TLS           bool
	ListenAddr    string
	FetchInterval time.Duration
	Mailbox       string
}

// OptionsFromConfig builds Options from the mail config section.
func OptionsFromConfig(cfg config.MailConfig) Options {
	return Options{
		Host:          cfg.IMAPHost,
		Port:          cfg.IMAPPort,
		TLS:           cfg.TLS,
		ListenAddr:    cfg.ListenAddr,
		FetchInterval: cfg.FetchInterval,
		Mailbox:       DefaultMailbox,
	}
}

// Service starts IMAP sessions. It implements mail.Backend.
type Service struct {
	opts Options

	// Overridable for tests.
	dial       DialFunc
	newFetcher func(userID, password string) Fetcher

	mu                sync.RWMutex
	onClientConnected func()
}

// NewService creates a service with opts.
func NewService(opts Options) *Service {
	if opts.Mailbox == "" {
		opts.Mailbox = DefaultMailbox
	}
	if opts.FetchInterval <= 0 {
		opts.FetchInterval = common.DefaultFetchInterval
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = common.DefaultIMAPListenAddr
	}

	s := &Service{opts: opts}
	s.dial = UpstreamDialer(opts.Host, opts.Port, opts.TLS)
	s.newFetcher = func(userID, password string) Fetcher {
		return NewRemoteFetcher(opts.Host, opts.Port, opts.TLS, userID, password)
	}
	return s
}

// SetOnClientConnected sets the callback run when a local client connects.
func (s *Service) SetOnClientConnected(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClientConnected = callback
}

func (s *Service) clientConnected() {
	s.mu.RLock()
	callback := s.onClientConnected
	s.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// StartIMAPService starts listening for local clients and prepares the
// fetch loop for userID. Offline sessions do not need a stored password.
func (s *Service) StartIMAPService(ctx context.Context, soledad mail.Soledad, keymanager mail.Keymanager, userID string, offline bool) (*mail.Session, error) {
	if soledad == nil || keymanager == nil {
		return nil, errors.New("mail service needs a document store and key manager")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	password, err := keymanager.IMAPPassword(userID)
	if err != nil && !offline {
		return nil, fmt.Errorf("reading IMAP password for %s: %w", userID, err)
	}

	factory := NewFactory(userID, common.MailStopTimeout)
	port, err := Listen(s.opts.ListenAddr, factory, s.dial, s.clientConnected)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.opts.ListenAddr, err)
	}

	var fetcher Fetcher
	if password != "" {
		fetcher = s.newFetcher(userID, password)
	}
	incoming := NewIncomingMail(fetcher, soledad, s.opts.Mailbox, s.opts.FetchInterval)

	return &mail.Session{Incoming: incoming, Port: port, Factory: factory}, nil
}
