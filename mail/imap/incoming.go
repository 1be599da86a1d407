package imap

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yllada/bitmask-client/mail"
)

// IncomingMail polls the provider and stores new messages.
type IncomingMail struct {
	fetcher  Fetcher
	store    mail.Soledad
	mailbox  string
	interval time.Duration

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	trigger  chan struct{}

	cycleMu   sync.Mutex
	onFetched func(count int)
}

// NewIncomingMail creates a fetch loop over fetcher. A nil fetcher makes
// every cycle a no-op, which is how offline sessions run.
func NewIncomingMail(fetcher Fetcher, store mail.Soledad, mailbox string, interval time.Duration) *IncomingMail {
	return &IncomingMail{
		fetcher:  fetcher,
		store:    store,
		mailbox:  mailbox,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// SetOnFetched sets a callback run after each cycle that stored messages.
func (m *IncomingMail) SetOnFetched(callback func(count int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFetched = callback
}

// StartFetchingLoop starts polling every interval, beginning immediately.
func (m *IncomingMail) StartFetchingLoop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.running = true
	m.cancel = cancel
	m.loopDone = make(chan struct{})

	go m.loop(ctx, m.loopDone)
	log.Info("Fetch loop started for %s (every %v)", m.mailbox, m.interval)
}

// StopFetchingLoop stops polling and waits for the current cycle to end.
func (m *IncomingMail) StopFetchingLoop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.cancel()
	done := m.loopDone
	m.mu.Unlock()

	<-done
	log.Info("Fetch loop stopped for %s", m.mailbox)
}

// IsRunning reports whether the loop is active.
func (m *IncomingMail) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Fetch requests an immediate cycle. Without a running loop the cycle
// runs on its own goroutine.
func (m *IncomingMail) Fetch() {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()

	if !running {
		go func() {
			if _, err := m.FetchOnce(context.Background()); err != nil {
				log.Error("Fetch failed: %v", err)
			}
		}()
		return
	}

	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

func (m *IncomingMail) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runCycle(ctx)
		case <-m.trigger:
			m.runCycle(ctx)
		}
	}
}

func (m *IncomingMail) runCycle(ctx context.Context) {
	if _, err := m.FetchOnce(ctx); err != nil && ctx.Err() == nil {
		log.Error("Fetch cycle failed: %v", err)
	}
}

// FetchOnce runs a single cycle and returns the number of stored messages.
func (m *IncomingMail) FetchOnce(ctx context.Context) (int, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	if m.fetcher == nil {
		log.Debug("Offline, skipping fetch")
		return 0, nil
	}

	last, err := m.store.LastUID(ctx, m.mailbox)
	if err != nil {
		return 0, err
	}

	messages, err := m.fetcher.FetchNew(ctx, m.mailbox, last)
	if err != nil && len(messages) == 0 {
		return 0, err
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].UID < messages[j].UID })

	stored := 0
	highest := last
	for _, msg := range messages {
		if msg.UID <= last {
			continue
		}
		have, herr := m.store.HasUID(ctx, m.mailbox, msg.UID)
		if herr != nil {
			return stored, herr
		}
		if !have {
			content, eerr := NewStoredMessage(msg.Raw).Encode()
			if eerr != nil {
				return stored, eerr
			}
			if perr := m.store.PutMessage(ctx, m.mailbox, msg.UID, content); perr != nil {
				return stored, perr
			}
			stored++
		}
		highest = msg.UID
		if serr := m.store.SetLastUID(ctx, m.mailbox, highest); serr != nil {
			return stored, serr
		}
	}

	if stored > 0 {
		log.Info("Stored %d new messages in %s (last UID %d)", stored, m.mailbox, highest)
		m.mu.Lock()
		callback := m.onFetched
		m.mu.Unlock()
		if callback != nil {
			callback(stored)
		}
	}
	return stored, err
}
