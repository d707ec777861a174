package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"macfinder/internal/domain"
)

// genericPrompt matches an IOS-style prompt before the hostname is known
var genericPrompt = regexp.MustCompile(`^[A-Za-z0-9][\w.\-@/:]*(\([\w.\-]+\))?[#>]$`)

var errReadTimeout = errors.New("no prompt before timeout")

// shellSession drives an interactive shell, delimiting command output by the device prompt
type shellSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	address string

	commandTimeout time.Duration
	prompt         string
	promptRE       *regexp.Regexp

	output chan []byte
	done   chan struct{}

	mu        sync.Mutex
	dead      bool
	closeOnce sync.Once

	// stale is set after a command timed out; its late output may still be in flight
	stale bool
}

// startShell opens a PTY shell on client, waits for the first prompt and runs setup commands
func startShell(client *ssh.Client, address string, config SessionConfig, deadline time.Time) (*shellSession, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 38400,
		ssh.TTY_OP_OSPEED: 38400,
	}
	if err := session.RequestPty("vt100", 24, config.TerminalWidth, modes); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to request PTY: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	s := &shellSession{
		client:         client,
		session:        session,
		stdin:          stdin,
		address:        address,
		commandTimeout: config.CommandTimeout,
		promptRE:       genericPrompt,
		output:         make(chan []byte, 64),
		done:           make(chan struct{}),
	}
	go s.pump(stdout)

	banner, err := s.readUntilPrompt(context.Background(), time.Until(deadline), "")
	if err != nil {
		s.Close()
		if errors.Is(err, errReadTimeout) {
			return nil, domain.NewError(domain.KindTimeout, "connect", address, fmt.Errorf("waiting for prompt: %w", err))
		}
		return nil, domain.NewError(domain.KindUnreachable, "connect", address, err)
	}
	s.setPrompt(lastLine(banner))

	for _, cmd := range config.SetupCommands {
		if _, err := s.Execute(context.Background(), cmd); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// pump copies shell output into s.output until EOF or Close
func (s *shellSession) pump(r io.Reader) {
	defer close(s.output)

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case s.output <- chunk:
			case <-s.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// Execute sends one command and waits for the prompt to return
func (s *shellSession) Execute(ctx context.Context, command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dead {
		return "", domain.NewError(domain.KindSession, "execute", s.address, ErrChannelClosed)
	}
	if err := ctx.Err(); err != nil {
		return "", domain.NewError(domain.KindCanceled, "execute", s.address, err)
	}

	// Anything buffered here arrived after the last prompt and belongs to nobody
	s.drain()

	if _, err := io.WriteString(s.stdin, command+"\n"); err != nil {
		s.dead = true
		return "", domain.NewError(domain.KindSession, "execute", s.address, fmt.Errorf("%w: %v", ErrChannelClosed, err))
	}

	// After a timeout the previous command may still answer, so only a prompt
	// that follows the echo of this command ends the read
	var echo string
	if s.stale {
		echo = command
	}
	raw, err := s.readUntilPrompt(ctx, s.commandTimeout, echo)
	if err != nil {
		s.stale = true
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ErrChannelClosed) {
			return "", domain.NewError(domain.KindCanceled, "execute", s.address, fmt.Errorf("command %q: %w", command, ctxErr))
		}
		if errors.Is(err, errReadTimeout) {
			return "", domain.NewError(domain.KindTimeout, "execute", s.address,
				fmt.Errorf("command %q: %w after %s", command, err, s.commandTimeout))
		}
		return "", domain.NewError(domain.KindSession, "execute", s.address, fmt.Errorf("command %q: %w", command, err))
	}

	if s.stale {
		raw = s.afterEcho(raw, command)
		s.stale = false
	}
	return s.clean(raw, command), nil
}

// Prompt returns the prompt discovered at login
func (s *shellSession) Prompt() string {
	return s.prompt
}

// Close releases the shell, the SSH connection and the pump goroutine
func (s *shellSession) Close() error {
	if s == nil {
		return nil
	}

	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.session.Close()
		if cerr := s.client.Close(); cerr != nil && !errors.Is(cerr, io.EOF) && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	})
	return err
}

// readUntilPrompt accumulates output until the last line is a prompt.
// When echo is set the prompt only counts once the echo of that command was seen.
// Cancellation of ctx ends the wait like a timeout.
func (s *shellSession) readUntilPrompt(ctx context.Context, timeout time.Duration, echo string) (string, error) {
	if timeout <= 0 {
		return "", errReadTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var buf strings.Builder
	for {
		select {
		case chunk, ok := <-s.output:
			if !ok {
				s.dead = true
				return buf.String(), ErrChannelClosed
			}
			buf.Write(chunk)
			out := buf.String()
			if !s.promptRE.MatchString(lastLine(out)) {
				continue
			}
			if echo == "" || s.echoLine(out, echo) >= 0 {
				return out, nil
			}
		case <-timer.C:
			return buf.String(), errReadTimeout
		case <-ctx.Done():
			return buf.String(), errReadTimeout
		}
	}
}

func (s *shellSession) drain() {
	for {
		select {
		case _, ok := <-s.output:
			if !ok {
				s.dead = true
				return
			}
		default:
			return
		}
	}
}

// echoLine returns the index of the line echoing command, or -1. The final
// line is never an echo since it holds the prompt being waited for.
func (s *shellSession) echoLine(raw, command string) int {
	command = strings.TrimSpace(command)
	lines := strings.Split(normalizeNewlines(raw), "\n")
	for i, line := range lines[:len(lines)-1] {
		line = strings.TrimSpace(line)
		if line == command {
			return i
		}
		if prefix, ok := strings.CutSuffix(line, command); ok && s.promptRE.MatchString(strings.TrimSpace(prefix)) {
			return i
		}
	}
	return -1
}

// afterEcho drops late output of earlier commands, keeping the echo line for clean
func (s *shellSession) afterEcho(raw, command string) string {
	i := s.echoLine(raw, command)
	if i < 0 {
		return raw
	}
	lines := strings.Split(normalizeNewlines(raw), "\n")
	return strings.Join(lines[i:], "\n")
}

// setPrompt narrows prompt matching to the device hostname (any mode suffix)
func (s *shellSession) setPrompt(prompt string) {
	s.prompt = prompt
	base := strings.TrimRight(prompt, "#>")
	if base == "" {
		return
	}
	s.promptRE = regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `(\([\w.\-]+\))?[#>]$`)
}

// clean strips the command echo and the trailing prompt from raw output
func (s *shellSession) clean(raw, command string) string {
	lines := strings.Split(normalizeNewlines(raw), "\n")

	if len(lines) > 0 && strings.Contains(lines[0], strings.TrimSpace(command)) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && s.promptRE.MatchString(strings.TrimSpace(lines[n-1])) {
		lines = lines[:n-1]
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func lastLine(s string) string {
	s = normalizeNewlines(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
