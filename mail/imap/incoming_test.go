package imap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memStore struct {
	mu      sync.Mutex
	docs    map[uint32][]byte
	lastUID uint32
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[uint32][]byte)}
}

func (s *memStore) PutMessage(_ context.Context, _ string, uid uint32, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uid] = content
	return nil
}

func (s *memStore) HasUID(_ context.Context, _ string, uid uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[uid]
	return ok, nil
}

func (s *memStore) LastUID(context.Context, string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUID, nil
}

func (s *memStore) SetLastUID(_ context.Context, _ string, uid uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUID = uid
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type fakeFetcher struct {
	mu       sync.Mutex
	messages []RawMessage
	err      error
	afters   []uint32
}

func (f *fakeFetcher) FetchNew(_ context.Context, _ string, after uint32) ([]RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.afters = append(f.afters, after)

	var out []RawMessage
	for _, m := range f.messages {
		if m.UID > after {
			out = append(out, m)
		}
	}
	return out, f.err
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.afters)
}

func TestIncomingMail_FetchOnce(t *testing.T) {
	store := newMemStore()
	fetcher := &fakeFetcher{messages: []RawMessage{
		{UID: 5, Raw: []byte(sampleMessage)},
		{UID: 3, Raw: []byte(sampleMessage)},
	}}
	m := NewIncomingMail(fetcher, store, DefaultMailbox, time.Minute)

	var notified int
	m.SetOnFetched(func(count int) { notified = count })

	n, err := m.FetchOnce(context.Background())
	if err != nil {
		t.Fatalf("FetchOnce() error = %v", err)
	}
	if n != 2 {
		t.Errorf("FetchOnce() = %d, want 2", n)
	}
	if store.lastUID != 5 {
		t.Errorf("lastUID = %d, want 5", store.lastUID)
	}
	if notified != 2 {
		t.Errorf("onFetched count = %d, want 2", notified)
	}

	// Second cycle asks only for newer messages.
	n, err = m.FetchOnce(context.Background())
	if err != nil {
		t.Fatalf("FetchOnce() error = %v", err)
	}
	if n != 0 {
		t.Errorf("second FetchOnce() = %d, want 0", n)
	}
	if fetcher.afters[1] != 5 {
		t.Errorf("second fetch after = %d, want 5", fetcher.afters[1])
	}
}

func TestIncomingMail_FetchErrorKeepsUID(t *testing.T) {
	store := newMemStore()
	fetchErr := errors.New("connection refused")
	m := NewIncomingMail(&fakeFetcher{err: fetchErr}, store, DefaultMailbox, time.Minute)

	_, err := m.FetchOnce(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Errorf("FetchOnce() error = %v, want %v", err, fetchErr)
	}
	if store.lastUID != 0 {
		t.Errorf("lastUID = %d, want 0", store.lastUID)
	}
}

func TestIncomingMail_Offline(t *testing.T) {
	m := NewIncomingMail(nil, newMemStore(), DefaultMailbox, time.Minute)

	n, err := m.FetchOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("FetchOnce() offline = %d, %v, want 0, nil", n, err)
	}
}

func TestIncomingMail_LoopStartStop(t *testing.T) {
	store := newMemStore()
	fetcher := &fakeFetcher{messages: []RawMessage{{UID: 1, Raw: []byte(sampleMessage)}}}
	m := NewIncomingMail(fetcher, store, DefaultMailbox, time.Hour)

	m.StartFetchingLoop()
	m.StartFetchingLoop()
	if !m.IsRunning() {
		t.Fatal("IsRunning() = false after StartFetchingLoop")
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.count() != 1 {
		t.Fatalf("stored %d messages, want 1", store.count())
	}

	// A manual fetch triggers another cycle before the hourly tick.
	m.Fetch()
	for fetcher.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if fetcher.calls() < 2 {
		t.Errorf("fetch calls = %d, want at least 2", fetcher.calls())
	}

	m.StopFetchingLoop()
	m.StopFetchingLoop()
	if m.IsRunning() {
		t.Error("IsRunning() = true after StopFetchingLoop")
	}
}

func TestIncomingMail_FetchWithoutLoop(t *testing.T) {
	store := newMemStore()
	fetcher := &fakeFetcher{messages: []RawMessage{{UID: 9, Raw: []byte(sampleMessage)}}}
	m := NewIncomingMail(fetcher, store, DefaultMailbox, time.Hour)

	m.Fetch()

	deadline := time.Now().Add(2 * time.Second)
	for store.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.count() != 1 {
		t.Errorf("stored %d messages, want 1", store.count())
	}
}
