// Package mail controls the lifecycle of the local IMAP mail service.
//
// The controller does no protocol work itself. It hands the user's document
// store and key manager to a Backend, keeps the Session the backend returns
// while the service runs, and tears that session down on Stop.
package mail
