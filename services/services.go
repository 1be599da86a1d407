// Package services wires the mail and EIP subsystems from a loaded
// configuration. The GTK, terminal and command-line front ends share it.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
	"github.com/yllada/bitmask-client/eip"
	"github.com/yllada/bitmask-client/keymanager"
	"github.com/yllada/bitmask-client/mail"
	"github.com/yllada/bitmask-client/mail/imap"
	"github.com/yllada/bitmask-client/soledad"
)

var log = common.NamedLogger("services")

// Services holds the long-lived components of a running client.
type Services struct {
	Config      *config.Config
	Keys        *keymanager.Manager
	Store       *soledad.Store
	MailService *imap.Service
	Mail        *mail.IMAPController
	EIP         *eip.Manager
}

// Open builds the key manager, unlocks the document store and creates the
// mail controller and EIP manager. secretsDir holds the credentials file
// used when no OS keyring is available.
func Open(cfg *config.Config, secretsDir string) (*Services, error) {
	keys, err := keymanager.New(keymanager.DefaultService, secretsDir)
	if err != nil {
		return nil, fmt.Errorf("opening key manager: %w", err)
	}
	return OpenWithKeys(cfg, keys)
}

// OpenWithKeys is Open with an existing key manager.
func OpenWithKeys(cfg *config.Config, keys *keymanager.Manager) (*Services, error) {
	dbPath, err := cfg.MailDBPath()
	if err != nil {
		return nil, err
	}

	passphrase, err := keys.StoragePassphrase(storageOwner(cfg))
	if err != nil {
		return nil, fmt.Errorf("reading storage passphrase: %w", err)
	}

	store, err := soledad.Open(dbPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	mailService := imap.NewService(imap.OptionsFromConfig(cfg.Mail))
	controller := mail.NewIMAPController(mailService, store, keys)
	mailService.SetOnClientConnected(controller.FetchNow)

	return &Services{
		Config:      cfg,
		Keys:        keys,
		Store:       store,
		MailService: mailService,
		Mail:        controller,
		EIP:         eip.NewManager(cfg.EIP),
	}, nil
}

// storageOwner names the keyring entry that unlocks the document store.
func storageOwner(cfg *config.Config) string {
	if cfg.Mail.UserID != "" {
		return cfg.Mail.UserID
	}
	return common.AppName
}

// StartMail starts the IMAP service for the configured account. Without a
// configured account it does nothing.
func (s *Services) StartMail(ctx context.Context) error {
	userID := s.Config.Mail.UserID
	if userID == "" {
		log.Info("No mail account configured, mail service not started")
		return nil
	}
	return s.Mail.Start(ctx, userID, s.Config.Mail.Offline)
}

// Close stops EIP and mail and closes the document store. Mail teardown
// is bounded by timeout.
func (s *Services) Close(timeout time.Duration) error {
	if s.EIP.IsRunning() {
		if err := s.EIP.Stop(); err != nil {
			log.Warn("Stopping EIP: %v", err)
		}
	}

	select {
	case <-s.Mail.Stop():
	case <-time.After(timeout):
		log.Warn("Mail service did not stop within %v", timeout)
	}

	return s.Store.Close()
}
