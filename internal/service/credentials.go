package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"macfinder/internal/domain"
)

// Environment variables read by EnvCredentials
const (
	EnvUsername = "MACFINDER_USERNAME"
	EnvPassword = "MACFINDER_PASSWORD"
)

// CredentialProvider resolves the login for a switch.
// Providers that cannot serve a target return domain.ErrCredentialNotFound.
type CredentialProvider interface {
	Credential(ctx context.Context, target domain.SwitchTarget) (*domain.Credential, error)
}

// CredentialStore is the subset of the credential repository used here
type CredentialStore interface {
	GetCredential(ctx context.Context, id string) (*domain.Credential, error)
}

func notFound(target domain.SwitchTarget) error {
	if target.CredentialRef != "" {
		return fmt.Errorf("%w: %q for %s", domain.ErrCredentialNotFound, target.CredentialRef, target.DisplayName())
	}
	return fmt.Errorf("%w: no shared credential for %s", domain.ErrCredentialNotFound, target.DisplayName())
}

// NamedCredentials serves credentials by reference, typically the ones
// embedded in the switch inventory
type NamedCredentials map[string]*domain.Credential

// Credential implements CredentialProvider
func (n NamedCredentials) Credential(_ context.Context, target domain.SwitchTarget) (*domain.Credential, error) {
	if target.CredentialRef == "" {
		return nil, notFound(target)
	}
	cred, ok := n[target.CredentialRef]
	if !ok {
		return nil, notFound(target)
	}
	return cred, nil
}

// StoreCredentials resolves references against the credential store
type StoreCredentials struct {
	store CredentialStore
}

// NewStoreCredentials creates a provider backed by store
func NewStoreCredentials(store CredentialStore) *StoreCredentials {
	return &StoreCredentials{store: store}
}

// Credential implements CredentialProvider
func (s *StoreCredentials) Credential(ctx context.Context, target domain.SwitchTarget) (*domain.Credential, error) {
	if target.CredentialRef == "" {
		return nil, notFound(target)
	}
	return s.store.GetCredential(ctx, target.CredentialRef)
}

// SharedCredentials is one username/password pair for every switch without a reference
type SharedCredentials struct {
	cred *domain.Credential
}

// NewSharedCredentials creates a shared provider from a fixed credential
func NewSharedCredentials(cred *domain.Credential) *SharedCredentials {
	return &SharedCredentials{cred: cred}
}

// EnvCredentials builds a shared provider from MACFINDER_USERNAME and
// MACFINDER_PASSWORD. It returns nil when either is unset.
func EnvCredentials() *SharedCredentials {
	username, password := os.Getenv(EnvUsername), os.Getenv(EnvPassword)
	if username == "" || password == "" {
		return nil
	}
	return NewSharedCredentials(&domain.Credential{
		ID:       "env",
		Type:     domain.CredentialTypePassword,
		Source:   domain.CredentialSourceEnv,
		Username: username,
		Password: password,
	})
}

// Credential implements CredentialProvider
func (s *SharedCredentials) Credential(_ context.Context, target domain.SwitchTarget) (*domain.Credential, error) {
	if s == nil || s.cred == nil || target.CredentialRef != "" {
		return nil, notFound(target)
	}
	return s.cred, nil
}

// PromptCredentials asks the operator once per run for a shared username
// and password. Every later call returns the same answer (or error).
type PromptCredentials struct {
	username     string
	in           io.Reader
	out          io.Writer
	readPassword func() ([]byte, error)

	once sync.Once
	cred *domain.Credential
	err  error
}

// NewPromptCredentials prompts on the controlling terminal. A non-empty
// username skips the username question.
func NewPromptCredentials(username string) *PromptCredentials {
	fd := int(os.Stdin.Fd())
	return &PromptCredentials{
		username: username,
		in:       os.Stdin,
		out:      os.Stderr,
		readPassword: func() ([]byte, error) {
			if !term.IsTerminal(fd) {
				return nil, errors.New("stdin is not a terminal")
			}
			return term.ReadPassword(fd)
		},
	}
}

// Credential implements CredentialProvider
func (p *PromptCredentials) Credential(_ context.Context, target domain.SwitchTarget) (*domain.Credential, error) {
	if target.CredentialRef != "" {
		return nil, notFound(target)
	}
	p.once.Do(func() {
		p.cred, p.err = p.ask()
	})
	return p.cred, p.err
}

func (p *PromptCredentials) ask() (*domain.Credential, error) {
	username := p.username
	if username == "" {
		fmt.Fprint(p.out, "Username: ")
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return nil, errors.New("username is required")
	}

	fmt.Fprint(p.out, "Password: ")
	password, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return &domain.Credential{
		ID:       "prompt",
		Type:     domain.CredentialTypePassword,
		Source:   domain.CredentialSourcePrompt,
		Username: username,
		Password: string(password),
	}, nil
}

// CredentialChain tries providers in order; the first one that knows the
// target wins. Errors other than domain.ErrCredentialNotFound stop the chain.
type CredentialChain []CredentialProvider

// Credential implements CredentialProvider
func (c CredentialChain) Credential(ctx context.Context, target domain.SwitchTarget) (*domain.Credential, error) {
	for _, provider := range c {
		if provider == nil {
			continue
		}
		cred, err := provider.Credential(ctx, target)
		if err == nil {
			return cred, nil
		}
		if !errors.Is(err, domain.ErrCredentialNotFound) {
			return nil, err
		}
	}
	return nil, notFound(target)
}
