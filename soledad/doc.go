// Package soledad is the local encrypted document store backing the mail
// service. Documents are sealed with a key derived from the user's storage
// passphrase before they reach the SQLite file, so the database on disk
// only holds ciphertext and bookkeeping columns.
package soledad
