package domain

import "strings"

// EntryType is the kind of MAC address table entry
type EntryType string

const (
	EntryDynamic EntryType = "dynamic"
	EntryStatic  EntryType = "static"
	EntryOther   EntryType = "other"
)

// ParseEntryType maps the device's type column onto an EntryType
func ParseEntryType(s string) EntryType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dynamic":
		return EntryDynamic
	case "static":
		return EntryStatic
	default:
		return EntryOther
	}
}

// ForwardingEntry is one row of a switch MAC address table
type ForwardingEntry struct {
	VLAN int    `json:"vlan"`
	MAC  string `json:"mac"`
	// Type is the normalized entry type, RawType the column as printed
	Type    EntryType `json:"type"`
	RawType string    `json:"raw_type"`
	Port    string    `json:"port"`
}

// SwitchportStatus is the parsed switchport state of one interface
type SwitchportStatus struct {
	OperationalMode string `json:"operational_mode"`
}

// IsAccess reports whether the operational mode is an access mode
// ("static access", "access", ...). Trunk and dynamic modes are not.
func (s SwitchportStatus) IsAccess() bool {
	return strings.Contains(strings.ToLower(s.OperationalMode), "access")
}

// Classification is the outcome of probing one MAC on one switch
type Classification string

const (
	// AccessPortMatch: the MAC is on an access port of this switch
	AccessPortMatch Classification = "access_port_match"
	// NonAccessPortIgnored: the MAC was learned on a trunk or other non-access port
	NonAccessPortIgnored Classification = "non_access_port_ignored"
	// NotFound: the MAC is not in this switch's table
	NotFound Classification = "not_found"
	// SwitchUnreachable: the switch could not be reached or the session died
	SwitchUnreachable Classification = "switch_unreachable"
	// AuthFailed: the switch refused the credentials
	AuthFailed Classification = "auth_failed"
	// Timeout: connect or command did not complete in time
	Timeout Classification = "timeout"
	// CommandFailed: a command failed on an otherwise healthy session
	CommandFailed Classification = "command_failed"
	// FoundElsewhere: skipped because another switch already matched (first-match search)
	FoundElsewhere Classification = "found_elsewhere"
	// Canceled: the run was canceled before this pair was checked
	Canceled Classification = "canceled"
)

// Found reports whether the classification is a positive location
func (c Classification) Found() bool {
	return c == AccessPortMatch
}

// Failed reports whether the pair could not be checked
func (c Classification) Failed() bool {
	switch c {
	case SwitchUnreachable, AuthFailed, Timeout, CommandFailed, Canceled:
		return true
	}
	return false
}

// Description returns a human-readable outcome
func (c Classification) Description() string {
	switch c {
	case AccessPortMatch:
		return "found on access port"
	case NonAccessPortIgnored:
		return "found on non-access port, ignored"
	case NotFound:
		return "not found"
	case SwitchUnreachable:
		return "switch unreachable"
	case AuthFailed:
		return "authentication failed"
	case Timeout:
		return "timed out"
	case CommandFailed:
		return "command failed"
	case FoundElsewhere:
		return "skipped, found on another switch"
	case Canceled:
		return "canceled"
	}
	return string(c)
}

// ClassificationForKind maps a connection or session error kind onto the
// classification reported for every pair it prevented from being checked
func ClassificationForKind(kind ErrorKind) Classification {
	switch kind {
	case KindAuthFailed:
		return AuthFailed
	case KindTimeout:
		return Timeout
	case KindCanceled:
		return Canceled
	default:
		return SwitchUnreachable
	}
}

// MatchResult is the outcome for one (switch, MAC) pair
type MatchResult struct {
	MAC            string         `json:"mac" yaml:"mac"`
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	Switch         string         `json:"switch" yaml:"switch"`
	Address        string         `json:"address" yaml:"address"`
	Port           string         `json:"port,omitempty" yaml:"port,omitempty"`
	VLAN           int            `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	Mode           string         `json:"mode,omitempty" yaml:"mode,omitempty"`
	Classification Classification `json:"classification" yaml:"classification"`
	Error          string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewMatchResult starts a result for the given pair
func NewMatchResult(target SwitchTarget, query MacQuery) MatchResult {
	return MatchResult{
		MAC:     query.MAC,
		Name:    query.Name,
		Switch:  target.DisplayName(),
		Address: target.Address,
	}
}

// Failure returns a copy of r classified from err
func (r MatchResult) Failure(err error) MatchResult {
	r.Classification = ClassificationForKind(KindOf(err))
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
