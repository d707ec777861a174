package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"macfinder/internal/domain"
)

// SessionConfig holds configuration for SSH sessions
type SessionConfig struct {
	// ConnectTimeout bounds TCP dial, SSH handshake, authentication and the first prompt
	ConnectTimeout time.Duration
	// CommandTimeout bounds each command independently of ConnectTimeout
	CommandTimeout time.Duration
	// SetupCommands run once after login (paging off, wide terminal)
	SetupCommands []string
	// KnownHostsFile enables host key checking when set
	KnownHostsFile string
	// TerminalWidth is the PTY width requested from the device
	TerminalWidth int
}

// DefaultSessionConfig returns sensible defaults for IOS-style switches
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 30 * time.Second,
		SetupCommands:  []string{"terminal length 0", "terminal width 511"},
		TerminalWidth:  511,
	}
}

// SSHDialer opens interactive shell sessions over SSH
type SSHDialer struct {
	config SessionConfig
	logger *slog.Logger
}

// NewSSHDialer creates a dialer, filling zero values from DefaultSessionConfig
func NewSSHDialer(config SessionConfig, logger *slog.Logger) *SSHDialer {
	defaults := DefaultSessionConfig()
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.CommandTimeout == 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if config.SetupCommands == nil {
		config.SetupCommands = defaults.SetupCommands
	}
	if config.TerminalWidth == 0 {
		config.TerminalWidth = defaults.TerminalWidth
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SSHDialer{config: config, logger: logger}
}

// Open establishes an authenticated shell session with the target
func (d *SSHDialer) Open(ctx context.Context, target domain.SwitchTarget, cred *domain.Credential) (Session, error) {
	addr := target.HostPort()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewError(domain.KindCanceled, "connect", target.Address, err)
	}

	config, err := d.buildSSHConfig(cred)
	if err != nil {
		return nil, domain.NewError(domain.KindAuthFailed, "connect", target.Address, err)
	}

	deadline := time.Now().Add(d.config.ConnectTimeout)
	connectCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	dialer := &net.Dialer{Timeout: d.config.ConnectTimeout}
	conn, err := dialer.DialContext(connectCtx, "tcp", addr)
	if err != nil {
		return nil, d.classify(ctx, target, deadline, fmt.Errorf("failed to dial: %w", err))
	}

	// Handshake, login and prompt discovery all share the connect deadline.
	// Canceling ctx forces the deadline so a blocked read returns.
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, d.classify(ctx, target, deadline, fmt.Errorf("failed to establish SSH connection: %w", err))
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sess, err := startShell(client, target.Address, d.config, deadline)
	if err != nil {
		client.Close()
		return nil, d.classify(ctx, target, deadline, err)
	}

	if !stop() {
		// ctx was canceled while the shell was starting
		sess.Close()
		return nil, domain.NewError(domain.KindCanceled, "connect", target.Address, context.Cause(ctx))
	}
	_ = conn.SetDeadline(time.Time{})

	d.logger.Debug("connected", "switch", target.DisplayName(), "address", addr, "prompt", sess.Prompt())
	return sess, nil
}

// classify maps a connect failure onto an error kind
func (d *SSHDialer) classify(ctx context.Context, target domain.SwitchTarget, deadline time.Time, err error) error {
	if ctx.Err() != nil {
		return domain.NewError(domain.KindCanceled, "connect", target.Address, err)
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"):
		return domain.NewError(domain.KindAuthFailed, "connect", target.Address, err)
	case isTimeout(err) || !time.Now().Before(deadline):
		return domain.NewError(domain.KindTimeout, "connect", target.Address, err)
	default:
		return domain.NewError(domain.KindUnreachable, "connect", target.Address, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "i/o timeout")
}

// buildSSHConfig creates an SSH client config from a credential
func (d *SSHDialer) buildSSHConfig(cred *domain.Credential) (*ssh.ClientConfig, error) {
	if cred == nil {
		return nil, fmt.Errorf("no credential available")
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}

	hostKeyCallback, err := d.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	var auth []ssh.AuthMethod
	switch cred.Type {
	case domain.CredentialTypeKey:
		signer, err := parseSigner(cred)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	default:
		auth = append(auth,
			ssh.Password(cred.Password),
			ssh.KeyboardInteractive(passwordChallenge(cred.Password)),
		)
	}

	return &ssh.ClientConfig{
		User:            cred.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         d.config.ConnectTimeout,
	}, nil
}

func (d *SSHDialer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if d.config.KnownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(d.config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts: %w", err)
	}
	return cb, nil
}

func parseSigner(cred *domain.Credential) (ssh.Signer, error) {
	var (
		signer ssh.Signer
		err    error
	)
	if cred.Passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase([]byte(cred.PrivateKey), []byte(cred.Passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey([]byte(cred.PrivateKey))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return signer, nil
}

// passwordChallenge answers every keyboard-interactive question with the password.
// Many switch SSH daemons only offer keyboard-interactive.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(user, instruction string, questions []string, echos []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range questions {
			answers[i] = password
		}
		return answers, nil
	}
}
