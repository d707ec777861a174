// Package domain defines the core types for locating end devices on a switch fleet.
//
// This package contains the entities and value objects shared by the session,
// parser, prober and fleet layers. It has no I/O and no external dependencies.
//
// # Core Types
//
// SwitchTarget identifies one switch reachable over SSH. MacQuery is one end
// device to search for, identified by its normalized MAC address.
//
// ForwardingEntry and SwitchportStatus are parsed from switch command output and
// live only for the duration of one probe.
//
// MatchResult is produced exactly once per (switch, MAC) pair and carries a
// Classification that separates "found on an access port" from "found on a
// trunk", "not found" and the connection failure outcomes.
//
// # Errors
//
// Error carries an ErrorKind so callers can classify failures without matching
// on error strings. KindOf extracts the kind from any wrapped error.
//
// # Credentials
//
// Credential holds the username/password (or private key) used to log into a
// switch. Credentials are resolved per switch through a CredentialRef.
package domain
