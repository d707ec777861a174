package adapter

import (
	"context"
	"errors"

	"macfinder/internal/domain"
)

// ErrChannelClosed means the remote shell is gone and no further commands can run
var ErrChannelClosed = errors.New("session channel closed")

// Session is one authenticated command channel to one switch.
// A session serves one in-flight command at a time.
type Session interface {
	// Execute sends one command and returns its output once the device
	// prompt returns. The echoed command and trailing prompt are stripped.
	Execute(ctx context.Context, command string) (string, error)

	// Prompt returns the device prompt discovered at login (e.g. "sw-core-1#")
	Prompt() string

	// Close releases the channel; safe to call more than once
	Close() error
}

// Dialer opens sessions to switches
type Dialer interface {
	// Open connects and authenticates. Failures are *domain.Error with kind
	// KindUnreachable, KindTimeout, KindAuthFailed or KindCanceled.
	Open(ctx context.Context, target domain.SwitchTarget, cred *domain.Credential) (Session, error)
}

// IsChannelDead reports whether err means the session can no longer be used
func IsChannelDead(err error) bool {
	return errors.Is(err, ErrChannelClosed)
}

// CloseSession closes s if it is non-nil
func CloseSession(s Session) error {
	if s == nil {
		return nil
	}
	return s.Close()
}
