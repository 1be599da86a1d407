// Package imap is the default mail subsystem behind mail.IMAPController.
//
// A started service has three parts:
//
//   - ListeningPort accepts local mail clients on 127.0.0.1 and relays
//     each connection to the provider's IMAP server over TLS.
//   - IncomingMail polls the provider for new INBOX messages and stores
//     them, encrypted, in the user's document store.
//   - Factory tracks relayed sessions so Stop can wait for them to drain.
package imap
