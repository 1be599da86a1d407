package soledad

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yllada/bitmask-client/common"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "soledad.db")
	s, err := Open(path, []byte("correct horse"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s, path
}

func TestStore_PutGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	doc := &Document{Kind: "message", Mailbox: "INBOX", UID: 7, Content: []byte("hello")}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatal("Put() should assign an ID")
	}

	got, err := s.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Content) != "hello" {
		t.Errorf("Content = %q, want hello", got.Content)
	}
	if got.UID != 7 || got.Mailbox != "INBOX" || got.Kind != "message" {
		t.Errorf("Get() = %+v, fields do not match", got)
	}
}

func TestStore_ContentIsEncryptedAtRest(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	doc := &Document{Kind: "message", Mailbox: "INBOX", Content: []byte("top secret")}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var raw []byte
	if err := s.db.Get(&raw, "SELECT content FROM documents WHERE id = ?", doc.ID); err != nil {
		t.Fatalf("reading raw row: %v", err)
	}
	if string(raw) == "top secret" || len(raw) <= len("top secret") {
		t.Error("stored content should be sealed")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "does-not-exist")
	if !errors.Is(err, common.ErrDocumentNotFound) {
		t.Errorf("Get() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestStore_ListOrderAndLimit(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for _, uid := range []uint32{3, 1, 2} {
		if err := s.Put(ctx, &Document{Kind: "message", Mailbox: "INBOX", UID: uid, Content: []byte("m")}); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	if err := s.Put(ctx, &Document{Kind: "message", Mailbox: "Sent", UID: 9, Content: []byte("m")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	docs, err := s.List(ctx, "INBOX", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("List() returned %d docs, want 3", len(docs))
	}
	for i, want := range []uint32{3, 2, 1} {
		if docs[i].UID != want {
			t.Errorf("docs[%d].UID = %d, want %d", i, docs[i].UID, want)
		}
	}

	limited, err := s.List(ctx, "INBOX", 2)
	if err != nil {
		t.Fatalf("List() limited error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit=2) returned %d docs", len(limited))
	}

	n, err := s.Count(ctx, "INBOX")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	has, err := s.HasUID(ctx, "INBOX", 2)
	if err != nil || !has {
		t.Errorf("HasUID(INBOX, 2) = %v, %v, want true", has, err)
	}
	has, err = s.HasUID(ctx, "INBOX", 9)
	if err != nil || has {
		t.Errorf("HasUID(INBOX, 9) = %v, %v, want false", has, err)
	}
}

func TestStore_LastUID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	uid, err := s.LastUID(ctx, "INBOX")
	if err != nil {
		t.Fatalf("LastUID() error = %v", err)
	}
	if uid != 0 {
		t.Errorf("LastUID() on fresh store = %d, want 0", uid)
	}

	if err := s.SetLastUID(ctx, "INBOX", 42); err != nil {
		t.Fatalf("SetLastUID() error = %v", err)
	}
	if err := s.SetLastUID(ctx, "INBOX", 43); err != nil {
		t.Fatalf("SetLastUID() error = %v", err)
	}

	uid, err = s.LastUID(ctx, "INBOX")
	if err != nil {
		t.Fatalf("LastUID() error = %v", err)
	}
	if uid != 43 {
		t.Errorf("LastUID() = %d, want 43", uid)
	}
}

func TestOpen_WrongPassphrase(t *testing.T) {
	s, path := newTestStore(t)
	if err := s.Put(context.Background(), &Document{Kind: "message", Content: []byte("x")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	_, err := Open(path, []byte("wrong"))
	if !errors.Is(err, common.ErrDecryption) {
		t.Errorf("Open() with wrong passphrase error = %v, want ErrDecryption", err)
	}

	reopened, err := Open(path, []byte("correct horse"))
	if err != nil {
		t.Fatalf("Open() with right passphrase error = %v", err)
	}
	reopened.Close()
}

func TestOpen_EmptyPassphrase(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), nil); err == nil {
		t.Error("Open() should reject an empty passphrase")
	}
}
