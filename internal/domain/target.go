package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPlatform is the device dialect assumed when inventory omits one
const DefaultPlatform = "cisco_ios"

// DefaultSSHPort is the TCP port used when inventory omits one
const DefaultSSHPort = 22

// SwitchTarget identifies one switch to probe
type SwitchTarget struct {
	// Name is a display name; defaults to Address
	Name string `json:"name" yaml:"name"`
	// Address is a hostname or IP
	Address string `json:"address" yaml:"address"`
	// Port is the SSH port
	Port int `json:"port" yaml:"port"`
	// Platform is the vendor dialect, e.g. "cisco_ios"
	Platform string `json:"platform" yaml:"platform"`
	// CredentialRef names the credential used to log in ("" = shared)
	CredentialRef string `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// HostPort returns the dial address for the target
func (t SwitchTarget) HostPort() string {
	port := t.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	host := t.Address
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + strconv.Itoa(port)
}

// DisplayName returns Name, or Address when no name is set
func (t SwitchTarget) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Address
}

// Validate checks the target is usable
func (t SwitchTarget) Validate() error {
	if strings.TrimSpace(t.Address) == "" {
		return fmt.Errorf("switch %q: address is required", t.Name)
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("switch %s: port %d out of range", t.Address, t.Port)
	}
	return nil
}

// MacQuery is one end device to search for
type MacQuery struct {
	// MAC is the normalized 12 hex digit lowercase form
	MAC string `json:"mac" yaml:"mac"`
	// Name is an optional label for the end device
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NewMacQuery normalizes mac and returns a query for it
func NewMacQuery(mac, name string) (MacQuery, error) {
	normalized, err := NormalizeMAC(mac)
	if err != nil {
		return MacQuery{}, err
	}
	return MacQuery{MAC: normalized, Name: name}, nil
}

// Cisco returns the query MAC in dotted Cisco form
func (q MacQuery) Cisco() string {
	return CiscoMAC(q.MAC)
}
