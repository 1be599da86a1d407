// Package common provides shared constants, types, and utilities
// used across the Bitmask client.
package common

import "errors"

// Sentinel errors. These can be checked with errors.Is().
var (
	// Mail service errors.
	ErrAlreadyStarted = errors.New("mail service already started")
	ErrAccountClosed  = errors.New("mail account closed")

	// EIP errors.
	ErrAlreadyRunning   = errors.New("openvpn is already running")
	ErrNotRunning       = errors.New("openvpn is not running")
	ErrManagement       = errors.New("management interface error")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")

	// Credential errors.
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrCredentialStorage   = errors.New("failed to store credentials")
	ErrEncryption          = errors.New("encryption error")
	ErrDecryption          = errors.New("decryption error")

	// Storage errors.
	ErrDocumentNotFound = errors.New("document not found")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
