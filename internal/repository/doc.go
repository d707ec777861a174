// Package repository defines the data access interfaces for macfinder.
//
// The only persisted data is the credential store: named switch logins that
// inventory entries reference by CredentialRef. Results are never stored.
// The implementation is in the sqlite subpackage, which uses the pure Go
// modernc.org/sqlite driver and migrates its schema on open.
package repository
