// Package adapter talks to switches.
//
// # Sessions
//
// SSHDialer opens a Session: TCP dial, SSH handshake and login bounded by the
// connect timeout, then a PTY shell whose prompt is discovered and used to
// delimit command output. Setup commands turn paging off. Each Execute is
// bounded by the command timeout; a timed-out command leaves the session
// usable, a closed channel does not (ErrChannelClosed).
//
// # Commands
//
// TemplateRenderer renders the forwarding_lookup and switchport_status
// commands from text/template sources with the sprig function map. The
// defaults are the Cisco IOS commands; config may override either.
//
// # Preflight
//
// Preflight runs nmap against the SSH port of every switch so that switches
// known to be down are reported without waiting for a dial timeout.
package adapter
