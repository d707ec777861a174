package domain

import "fmt"

// Inventory is the set of switches to search plus any credentials that were
// embedded in the inventory file itself
type Inventory struct {
	Switches []SwitchTarget
	// Credentials maps CredentialRef to the embedded credential
	Credentials map[string]*Credential
}

// NewInventory creates an empty inventory
func NewInventory() *Inventory {
	return &Inventory{Credentials: make(map[string]*Credential)}
}

// EmbeddedCredentialRef is the reference given to a login written inline
// with a switch entry
func EmbeddedCredentialRef(address string) string {
	return "inventory:" + address
}

// AddSwitch appends target, attaching username/password as an embedded
// credential when given. An explicit CredentialRef is kept as-is.
func (inv *Inventory) AddSwitch(target SwitchTarget, username, password string) {
	if target.Platform == "" {
		target.Platform = DefaultPlatform
	}
	if username != "" && password != "" && target.CredentialRef == "" {
		ref := EmbeddedCredentialRef(target.Address)
		inv.Credentials[ref] = &Credential{
			ID:       ref,
			Type:     CredentialTypePassword,
			Source:   CredentialSourceInventory,
			Username: username,
			Password: password,
		}
		target.CredentialRef = ref
	}
	inv.Switches = append(inv.Switches, target)
}

// Validate checks every switch and rejects duplicate addresses
func (inv *Inventory) Validate() error {
	seen := make(map[string]int, len(inv.Switches))
	for i, target := range inv.Switches {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i+1, err)
		}
		key := target.HostPort()
		if first, dup := seen[key]; dup {
			return fmt.Errorf("entry %d: duplicate switch address %s (first seen in entry %d)", i+1, target.Address, first)
		}
		seen[key] = i + 1
	}
	return nil
}
