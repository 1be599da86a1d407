// Package common provides shared constants, types, utilities, and interfaces
// used throughout the Bitmask client.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: application-wide defaults for mail, EIP and the UI
//   - Errors: sentinel errors checked with errors.Is across packages
//   - Interfaces: abstractions for notifications and logging
//   - Logger: leveled logging to stdout and a rotating log file
//   - Utils: file and directory helpers
//
// # Usage
//
//	common.LogInfo("Starting imap service for %s", userID)
//
//	if errors.Is(err, common.ErrCredentialsNotFound) {
//	    // ask the user for a password
//	}
package common
