package codec

import (
	"io"

	"macfinder/internal/domain"
)

// Importer reads a switch inventory from a given format
type Importer interface {
	Parse(r io.Reader) (*domain.Inventory, error)
	Format() string
}

// Exporter writes a switch inventory in a given format
type Exporter interface {
	Export(inv *domain.Inventory, w io.Writer) error
	Format() string
}

// switchEntry is one switch in the native inventory layout. Username and
// password may be written inline, as in the classic switches.yml.
type switchEntry struct {
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
	Address    string `yaml:"address" json:"address"`
	Port       int    `yaml:"port,omitempty" json:"port,omitempty"`
	Platform   string `yaml:"platform,omitempty" json:"platform,omitempty"`
	Username   string `yaml:"username,omitempty" json:"username,omitempty"`
	Password   string `yaml:"password,omitempty" json:"password,omitempty"`
	Credential string `yaml:"credential,omitempty" json:"credential,omitempty"`
}

// switchList is the native inventory document. host_list is the older
// name for the same list and is read but never written.
type switchList struct {
	Switches []switchEntry `yaml:"switch_list" json:"switch_list"`
	Hosts    []switchEntry `yaml:"host_list,omitempty" json:"host_list,omitempty"`
}

func (l switchList) toInventory() *domain.Inventory {
	inv := domain.NewInventory()
	for _, e := range append(l.Switches, l.Hosts...) {
		inv.AddSwitch(domain.SwitchTarget{
			Name:          e.Name,
			Address:       e.Address,
			Port:          e.Port,
			Platform:      e.Platform,
			CredentialRef: e.Credential,
		}, e.Username, e.Password)
	}
	return inv
}

// fromInventory builds the native document. Passwords are never written;
// embedded logins keep only their username.
func fromInventory(inv *domain.Inventory) switchList {
	var l switchList
	for _, t := range inv.Switches {
		e := switchEntry{
			Name:     t.Name,
			Address:  t.Address,
			Port:     t.Port,
			Platform: t.Platform,
		}
		if cred, ok := inv.Credentials[t.CredentialRef]; ok && cred.Source == domain.CredentialSourceInventory {
			e.Username = cred.Username
		} else {
			e.Credential = t.CredentialRef
		}
		l.Switches = append(l.Switches, e)
	}
	return l
}
