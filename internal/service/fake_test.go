package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"macfinder/internal/adapter"
	"macfinder/internal/domain"
)

// fakeDevice scripts one switch for the fake dialer
type fakeDevice struct {
	prompt  string
	openErr error
	// outputs maps a command to its output
	outputs map[string]string
	// failures maps a command to the error Execute returns
	failures map[string]error
	// onExecute runs before each command
	onExecute func(command string)
}

func newFakeDevice(prompt string) *fakeDevice {
	return &fakeDevice{
		prompt:   prompt,
		outputs:  make(map[string]string),
		failures: make(map[string]error),
	}
}

// withMAC puts mac in the device table on port with the given operational mode
func (d *fakeDevice) withMAC(mac, port, mode string) *fakeDevice {
	cisco := domain.CiscoMAC(mac)
	d.outputs["show mac address-table | include "+cisco] = fmt.Sprintf(
		"          Mac Address Table\n-------------------------------------------\n\nVlan    Mac Address       Type        Ports\n----    -----------       --------    -----\n  10    %s    DYNAMIC     %s\nTotal Mac Addresses for this criterion: 1", cisco, port)
	d.outputs["show interfaces "+port+" switchport"] = fmt.Sprintf(
		"Name: %s\nSwitchport: Enabled\nAdministrative Mode: %s\nOperational Mode: %s\nAccess Mode VLAN: 10 (USERS)", port, mode, mode)
	return d
}

// fakeDialer hands out scripted sessions keyed by switch address
type fakeDialer struct {
	mu      sync.Mutex
	devices map[string]*fakeDevice
	opened  []string
	creds   map[string]*domain.Credential
	closed  int
	live    int
	maxLive int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{
		devices: make(map[string]*fakeDevice),
		creds:   make(map[string]*domain.Credential),
	}
}

func (d *fakeDialer) add(address string, dev *fakeDevice) {
	d.devices[address] = dev
}

func (d *fakeDialer) Open(ctx context.Context, target domain.SwitchTarget, cred *domain.Credential) (adapter.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.opened = append(d.opened, target.Address)
	d.creds[target.Address] = cred

	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindCanceled, "connect", target.Address, err)
	}
	dev, ok := d.devices[target.Address]
	if !ok {
		return nil, domain.NewError(domain.KindUnreachable, "connect", target.Address, errors.New("connection refused"))
	}
	if dev.openErr != nil {
		return nil, dev.openErr
	}

	d.live++
	if d.live > d.maxLive {
		d.maxLive = d.live
	}
	return &fakeSession{dialer: d, device: dev, address: target.Address}, nil
}

func (d *fakeDialer) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

type fakeSession struct {
	dialer   *fakeDialer
	device   *fakeDevice
	address  string
	commands []string
	dead     bool
	closed   bool
}

func (s *fakeSession) Execute(ctx context.Context, command string) (string, error) {
	if s.dead {
		return "", domain.NewError(domain.KindSession, "execute", s.address, adapter.ErrChannelClosed)
	}
	if err := ctx.Err(); err != nil {
		return "", domain.NewError(domain.KindCanceled, "execute", s.address, err)
	}
	s.commands = append(s.commands, command)
	if s.device.onExecute != nil {
		s.device.onExecute(command)
	}
	if err, ok := s.device.failures[command]; ok {
		if adapter.IsChannelDead(err) {
			s.dead = true
		}
		return "", err
	}
	return s.device.outputs[command], nil
}

func (s *fakeSession) Prompt() string {
	return s.device.prompt
}

func (s *fakeSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.dialer.mu.Lock()
	defer s.dialer.mu.Unlock()
	s.dialer.closed++
	s.dialer.live--
	return nil
}

func mustQuery(mac, name string) domain.MacQuery {
	q, err := domain.NewMacQuery(mac, name)
	if err != nil {
		panic(err)
	}
	return q
}

func sharedCreds() CredentialProvider {
	return NewSharedCredentials(&domain.Credential{ID: "shared", Username: "netops", Password: "cisco"})
}

func defaultRenderer() adapter.CommandRenderer {
	r, err := adapter.NewTemplateRenderer(nil)
	if err != nil {
		panic(err)
	}
	return r
}
