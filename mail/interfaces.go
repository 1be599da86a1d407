package mail

import "context"

// Soledad is the encrypted document store the mail subsystem writes to.
type Soledad interface {
	PutMessage(ctx context.Context, mailbox string, uid uint32, content []byte) error
	HasUID(ctx context.Context, mailbox string, uid uint32) (bool, error)
	LastUID(ctx context.Context, mailbox string) (uint32, error)
	SetLastUID(ctx context.Context, mailbox string, uid uint32) error
}

// Keymanager supplies the user's provider credentials.
type Keymanager interface {
	IMAPPassword(userID string) (string, error)
}

// IncomingMail is the periodic fetch loop of a running service.
type IncomingMail interface {
	StartFetchingLoop()
	StopFetchingLoop()
	Fetch()
}

// ListeningPort is the local socket mail clients connect to.
type ListeningPort interface {
	StopListening() error
}

// AccountFactory owns the account and the sessions served on the port.
// Stop calls done once every session has been torn down.
type AccountFactory interface {
	CloseAccount()
	Stop(done func())
}

// Session is what a Backend returns for a started service.
type Session struct {
	Incoming IncomingMail
	Port     ListeningPort
	Factory  AccountFactory
}

// Backend starts the IMAP service for a user.
type Backend interface {
	StartIMAPService(ctx context.Context, soledad Soledad, keymanager Keymanager, userID string, offline bool) (*Session, error)
}
