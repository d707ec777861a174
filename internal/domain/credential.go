package domain

import (
	"fmt"
	"time"
)

// CredentialSource indicates where a credential originated
type CredentialSource string

const (
	// CredentialSourceInventory is embedded in the switch inventory
	CredentialSourceInventory CredentialSource = "inventory"
	// CredentialSourceStore comes from the credential store
	CredentialSourceStore CredentialSource = "store"
	// CredentialSourceEnv comes from environment variables
	CredentialSourceEnv CredentialSource = "env"
	// CredentialSourcePrompt was typed by the operator
	CredentialSourcePrompt CredentialSource = "prompt"
)

// CredentialType categorizes how the credential authenticates
type CredentialType string

const (
	CredentialTypePassword CredentialType = "ssh_password"
	CredentialTypeKey      CredentialType = "ssh_key"
)

// Credential is a login for one or more switches
type Credential struct {
	// ID is the reference used by inventory entries (e.g. "core-switches")
	ID     string           `json:"id"`
	Type   CredentialType   `json:"type"`
	Source CredentialSource `json:"source"`

	Username string `json:"username"`
	Password string `json:"-"`
	// PrivateKey is a PEM-encoded key, Passphrase its optional passphrase
	PrivateKey string `json:"-"`
	Passphrase string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the credential carries enough to authenticate
func (c *Credential) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("credential %q: username is required", c.ID)
	}
	switch c.Type {
	case CredentialTypeKey:
		if c.PrivateKey == "" {
			return fmt.Errorf("credential %q: private key is required", c.ID)
		}
	case CredentialTypePassword, "":
		if c.Password == "" {
			return fmt.Errorf("credential %q: password is required", c.ID)
		}
	default:
		return fmt.Errorf("credential %q: unsupported type %s", c.ID, c.Type)
	}
	return nil
}

// CredentialSummary is a safe view of a credential (no secret material)
type CredentialSummary struct {
	ID          string           `json:"id"`
	Type        CredentialType   `json:"type"`
	Source      CredentialSource `json:"source"`
	Username    string           `json:"username"`
	HasPassword bool             `json:"has_password"`
	HasKey      bool             `json:"has_key"`
}

// ToSummary creates a summary without sensitive fields
func (c *Credential) ToSummary() CredentialSummary {
	return CredentialSummary{
		ID:          c.ID,
		Type:        c.Type,
		Source:      c.Source,
		Username:    c.Username,
		HasPassword: c.Password != "",
		HasKey:      c.PrivateKey != "",
	}
}
