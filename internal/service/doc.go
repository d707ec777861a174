// Package service implements the search logic of macfinder.
//
// # Probing
//
// Prober logs into one switch, looks up each MAC in the switch's MAC address
// table and checks the operational mode of the port it was learned on. A MAC
// counts as located only when that port is an access port; trunks and uplinks
// learn every MAC behind them and are reported as ignored.
//
// Fleet runs one Prober per switch on a bounded worker pool and merges their
// results. Every (switch, MAC) pair yields exactly one MatchResult, including
// pairs that could not be checked because the switch was unreachable, refused
// the login or the run was canceled.
//
// # Credentials
//
// CredentialProvider implementations resolve the login for each switch:
// credentials embedded in the inventory, named credentials from the store,
// a shared pair from the environment, or one interactive prompt per run.
//
// # Event System
//
// Probers publish diagnostic events (connect failures, unparseable output,
// located MACs) via EventBus. Events are logged and may be subscribed to;
// they never alter MatchResult classifications.
package service
