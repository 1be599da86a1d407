// Package keymanager provides secure storage for per-user secrets: the
// provider IMAP password and the passphrase that unlocks the local
// document store. It uses the system keyring when available, falling
// back to an encrypted file when not.
package keymanager

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/yllada/bitmask-client/common"
)

// DefaultService is the identifier used in the system keyring.
const DefaultService = "bitmask"

// Secret names a kind of per-user secret.
type Secret string

const (
	// SecretIMAPPassword is the provider account password.
	SecretIMAPPassword Secret = "imap-password"
	// SecretStoragePassphrase unlocks the local document store.
	SecretStoragePassphrase Secret = "storage-passphrase"
)

const passphraseBytes = 32

// Manager stores and retrieves user secrets.
type Manager struct {
	service string

	mu        sync.RWMutex
	useLocal  bool
	localFile string
	local     map[string]string
	fileKey   *[32]byte
	salt      []byte
}

// localFileFormat is the on-disk layout of the fallback store.
type localFileFormat struct {
	Salt string `json:"salt"`
	Box  string `json:"box"`
}

// New returns a Manager for service. dir holds the fallback credentials
// file; it is only touched if the system keyring is unusable.
func New(service, dir string) (*Manager, error) {
	m := &Manager{
		service:   service,
		localFile: filepath.Join(dir, common.CredentialsFileName),
		local:     make(map[string]string),
	}

	probe := service + "-probe"
	if err := keyring.Set(service, probe, "probe"); err == nil {
		keyring.Delete(service, probe)
		return m, nil
	}

	common.LogWarn("System keyring unavailable, using encrypted file %s", m.localFile)
	if err := m.enableLocalStorage(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewLocal returns a Manager that only uses the encrypted file in dir.
func NewLocal(service, dir string) (*Manager, error) {
	m := &Manager{
		service:   service,
		localFile: filepath.Join(dir, common.CredentialsFileName),
		local:     make(map[string]string),
	}
	if err := m.enableLocalStorage(); err != nil {
		return nil, err
	}
	return m, nil
}

func itemKey(userID string, secret Secret) string {
	return userID + "/" + string(secret)
}

// enableLocalStorage switches to the encrypted file and loads it.
func (m *Manager) enableLocalStorage() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.useLocal {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(m.localFile), 0700); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	var stored localFileFormat
	data, err := os.ReadFile(m.localFile)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDecryption, err)
		}
		if m.salt, err = base64.StdEncoding.DecodeString(stored.Salt); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDecryption, err)
		}
	case os.IsNotExist(err):
		m.salt = make([]byte, 16)
		if _, err := io.ReadFull(rand.Reader, m.salt); err != nil {
			return fmt.Errorf("%w: %v", common.ErrEncryption, err)
		}
	default:
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	key, err := deriveFileKey(m.salt)
	if err != nil {
		return err
	}
	m.fileKey = key
	m.useLocal = true

	if stored.Box == "" {
		return nil
	}

	box, err := base64.StdEncoding.DecodeString(stored.Box)
	if err != nil || len(box) < 24 {
		return common.ErrDecryption
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, m.fileKey)
	if !ok {
		return common.ErrDecryption
	}
	return json.Unmarshal(plain, &m.local)
}

// deriveFileKey binds the fallback file to this machine and user.
func deriveFileKey(salt []byte) (*[32]byte, error) {
	hostname, _ := os.Hostname()
	material := fmt.Sprintf("%s-%s-%s-%d", DefaultService, hostname, machineID(), os.Getuid())

	derived, err := scrypt.Key([]byte(material), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	var key [32]byte
	copy(key[:], derived)
	return &key, nil
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

// saveLocal writes the fallback store. Callers hold m.mu.
func (m *Manager) saveLocal() error {
	plain, err := json.Marshal(m.local)
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, m.fileKey)

	data, err := json.Marshal(localFileFormat{
		Salt: base64.StdEncoding.EncodeToString(m.salt),
		Box:  base64.StdEncoding.EncodeToString(box),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.localFile, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// Store saves a secret for userID.
func (m *Manager) Store(userID string, secret Secret, value string) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}
	if value == "" {
		return errors.New("secret cannot be empty")
	}
	key := itemKey(userID, secret)

	m.mu.RLock()
	useLocal := m.useLocal
	m.mu.RUnlock()

	if !useLocal {
		err := keyring.Set(m.service, key, value)
		if err == nil {
			return nil
		}
		common.LogWarn("Keyring write failed, falling back to file: %v", err)
		if err := m.enableLocalStorage(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.local[key] = value
	return m.saveLocal()
}

// Get retrieves a secret for userID.
func (m *Manager) Get(userID string, secret Secret) (string, error) {
	if userID == "" {
		return "", errors.New("user ID cannot be empty")
	}
	key := itemKey(userID, secret)

	m.mu.RLock()
	useLocal := m.useLocal
	value, inLocal := m.local[key]
	m.mu.RUnlock()

	if useLocal {
		if !inLocal {
			return "", common.ErrCredentialsNotFound
		}
		return value, nil
	}

	value, err := keyring.Get(m.service, key)
	if err != nil {
		if inLocal {
			return m.local[key], nil
		}
		return "", common.ErrCredentialsNotFound
	}
	return value, nil
}

// Delete removes a secret for userID. Removing a missing secret is not an error.
func (m *Manager) Delete(userID string, secret Secret) error {
	if userID == "" {
		return errors.New("user ID cannot be empty")
	}
	key := itemKey(userID, secret)

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.useLocal {
		if err := keyring.Delete(m.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
		}
		return nil
	}

	delete(m.local, key)
	return m.saveLocal()
}

// Exists reports whether a secret is stored for userID.
func (m *Manager) Exists(userID string, secret Secret) bool {
	_, err := m.Get(userID, secret)
	return err == nil
}

// IMAPPassword returns the provider password for userID.
func (m *Manager) IMAPPassword(userID string) (string, error) {
	return m.Get(userID, SecretIMAPPassword)
}

// StoragePassphrase returns the document store passphrase for userID,
// generating and storing a random one on first use.
func (m *Manager) StoragePassphrase(userID string) ([]byte, error) {
	encoded, err := m.Get(userID, SecretStoragePassphrase)
	if err == nil {
		return base64.StdEncoding.DecodeString(encoded)
	}
	if !errors.Is(err, common.ErrCredentialsNotFound) {
		return nil, err
	}

	passphrase := make([]byte, passphraseBytes)
	if _, err := io.ReadFull(rand.Reader, passphrase); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEncryption, err)
	}
	if err := m.Store(userID, SecretStoragePassphrase, base64.StdEncoding.EncodeToString(passphrase)); err != nil {
		return nil, err
	}
	common.LogInfo("Generated storage passphrase for %s", userID)
	return passphrase, nil
}

// IsLocal reports whether the encrypted file backend is in use.
func (m *Manager) IsLocal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.useLocal
}
