package soledad

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
	_ "modernc.org/sqlite"

	"github.com/yllada/bitmask-client/common"
)

const keyCheckPlaintext = "soledad-key-check"

// Document is a decrypted record from the store.
type Document struct {
	ID        string
	Kind      string
	Mailbox   string
	UID       uint32
	CreatedAt time.Time
	Content   []byte
}

type documentRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Mailbox   string `db:"mailbox"`
	UID       uint32 `db:"uid"`
	CreatedAt int64  `db:"created_at"`
	Content   []byte `db:"content"`
}

// Store is an encrypted document store over SQLite.
type Store struct {
	db  *sqlx.DB
	key *[32]byte
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
			CREATE TABLE IF NOT EXISTS store_meta (
				key   TEXT PRIMARY KEY,
				value BLOB NOT NULL
			);
			CREATE TABLE IF NOT EXISTS documents (
				id         TEXT PRIMARY KEY,
				kind       TEXT NOT NULL,
				mailbox    TEXT NOT NULL DEFAULT '',
				uid        INTEGER NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				content    BLOB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_documents_mailbox ON documents (mailbox, uid);
			CREATE TABLE IF NOT EXISTS sync_state (
				mailbox  TEXT PRIMARY KEY,
				last_uid INTEGER NOT NULL
			);
			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}

// Open opens (or creates) the store at path and unlocks it with passphrase.
// A passphrase that does not match the one the store was created with
// yields common.ErrDecryption.
func Open(path string, passphrase []byte) (*Store, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("storage passphrase cannot be empty")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.unlock(passphrase); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// unlock derives the document key and checks it against the stored marker.
func (s *Store) unlock(passphrase []byte) error {
	var salt []byte
	err := s.db.Get(&salt, "SELECT value FROM store_meta WHERE key = 'salt'")
	fresh := errors.Is(err, sql.ErrNoRows)
	if err != nil && !fresh {
		return fmt.Errorf("reading store salt: %w", err)
	}

	if fresh {
		salt = make([]byte, 16)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return fmt.Errorf("%w: %v", common.ErrEncryption, err)
		}
	}

	derived, err := scrypt.Key(passphrase, salt, 1<<15, 8, 1, 32)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	s.key = new([32]byte)
	copy(s.key[:], derived)

	if fresh {
		check, err := s.seal([]byte(keyCheckPlaintext))
		if err != nil {
			return err
		}
		_, err = s.db.Exec(
			"INSERT INTO store_meta (key, value) VALUES ('salt', ?), ('check', ?)",
			salt, check,
		)
		if err != nil {
			return fmt.Errorf("writing store meta: %w", err)
		}
		return nil
	}

	var check []byte
	if err := s.db.Get(&check, "SELECT value FROM store_meta WHERE key = 'check'"); err != nil {
		return fmt.Errorf("reading key check: %w", err)
	}
	plain, err := s.open(check)
	if err != nil || string(plain) != keyCheckPlaintext {
		return common.ErrDecryption
	}
	return nil
}

func (s *Store) seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, s.key), nil
}

func (s *Store) open(box []byte) ([]byte, error) {
	if len(box) < 24 {
		return nil, common.ErrDecryption
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, s.key)
	if !ok {
		return nil, common.ErrDecryption
	}
	return plain, nil
}

// Put encrypts and stores doc, assigning an ID and creation time if unset.
// Storing a document with an existing ID replaces it.
func (s *Store) Put(ctx context.Context, doc *Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	sealed, err := s.seal(doc.Content)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, kind, mailbox, uid, created_at, content)
		VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Kind, doc.Mailbox, doc.UID, doc.CreatedAt.UnixNano(), sealed,
	)
	if err != nil {
		return fmt.Errorf("storing document %s: %w", doc.ID, err)
	}
	return nil
}

// Get returns the document with id.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM documents WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", id, err)
	}
	return s.decode(row)
}

// List returns up to limit documents in mailbox, newest UID first.
// A limit of zero or less returns every document.
func (s *Store) List(ctx context.Context, mailbox string, limit int) ([]Document, error) {
	query := "SELECT * FROM documents WHERE mailbox = ? ORDER BY uid DESC, created_at DESC"
	args := []interface{}{mailbox}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// Count returns the number of documents in mailbox.
func (s *Store) Count(ctx context.Context, mailbox string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM documents WHERE mailbox = ?", mailbox); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// HasUID reports whether a message with uid is already stored for mailbox.
func (s *Store) HasUID(ctx context.Context, mailbox string, uid uint32) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM documents WHERE mailbox = ? AND uid = ?", mailbox, uid)
	if err != nil {
		return false, fmt.Errorf("checking uid %d: %w", uid, err)
	}
	return n > 0, nil
}

// LastUID returns the highest UID fetched for mailbox, or zero.
func (s *Store) LastUID(ctx context.Context, mailbox string) (uint32, error) {
	var uid uint32
	err := s.db.GetContext(ctx, &uid, "SELECT last_uid FROM sync_state WHERE mailbox = ?", mailbox)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading sync state: %w", err)
	}
	return uid, nil
}

// SetLastUID records uid as the highest fetched UID for mailbox.
func (s *Store) SetLastUID(ctx context.Context, mailbox string, uid uint32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sync_state (mailbox, last_uid) VALUES (?, ?)", mailbox, uid)
	if err != nil {
		return fmt.Errorf("writing sync state: %w", err)
	}
	return nil
}

func (s *Store) decode(row documentRow) (*Document, error) {
	plain, err := s.open(row.Content)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", row.ID, err)
	}
	return &Document{
		ID:        row.ID,
		Kind:      row.Kind,
		Mailbox:   row.Mailbox,
		UID:       row.UID,
		CreatedAt: time.Unix(0, row.CreatedAt),
		Content:   plain,
	}, nil
}

// KindMessage marks documents holding a fetched mail message.
const KindMessage = "message"

// PutMessage stores a fetched message as a new document.
func (s *Store) PutMessage(ctx context.Context, mailbox string, uid uint32, content []byte) error {
	return s.Put(ctx, &Document{Kind: KindMessage, Mailbox: mailbox, UID: uid, Content: content})
}
