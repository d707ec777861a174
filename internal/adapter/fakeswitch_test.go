package adapter

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"macfinder/internal/domain"
)

// fakeSwitch is an in-process SSH server that behaves like an IOS CLI
type fakeSwitch struct {
	hostname string
	username string
	password string

	// responses maps an exact command line to its output
	responses map[string]string
	// silent commands are echoed but never followed by a prompt
	silent map[string]bool
	// hangup commands close the shell channel
	hangup map[string]bool
	// delay holds back a command's output and prompt
	delay map[string]time.Duration
}

func newFakeSwitch(hostname string) *fakeSwitch {
	return &fakeSwitch{
		hostname:  hostname,
		username:  "netops",
		password:  "cisco",
		responses: make(map[string]string),
		silent:    make(map[string]bool),
		hangup:    make(map[string]bool),
		delay:     make(map[string]time.Duration),
	}
}

// start listens on a loopback port and returns a target pointing at it
func (fs *fakeSwitch) start(t *testing.T) domain.SwitchTarget {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host key signer: %v", err)
	}

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == fs.username && string(pass) == fs.password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go fs.serveConn(conn, config)
		}
	}()

	return targetFor(t, fs.hostname, ln.Addr().String())
}

func (fs *fakeSwitch) credential() *domain.Credential {
	return &domain.Credential{ID: "test", Username: fs.username, Password: fs.password}
}

func (fs *fakeSwitch) serveConn(conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, requests, err := newCh.Accept()
		if err != nil {
			return
		}
		go func() {
			for req := range requests {
				switch req.Type {
				case "pty-req":
					req.Reply(true, nil)
				case "shell":
					req.Reply(true, nil)
					go fs.runShell(ch)
				default:
					req.Reply(false, nil)
				}
			}
		}()
	}
}

func (fs *fakeSwitch) runShell(ch ssh.Channel) {
	defer ch.Close()

	fmt.Fprintf(ch, "\r\nUnauthorized access prohibited\r\n\r\n%s#", fs.hostname)

	reader := bufio.NewReader(ch)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimSpace(line)
		fmt.Fprintf(ch, "%s\r\n", cmd)

		if fs.hangup[cmd] {
			return
		}
		if fs.silent[cmd] {
			continue
		}
		if d, ok := fs.delay[cmd]; ok {
			time.Sleep(d)
		}
		if out, ok := fs.responses[cmd]; ok && out != "" {
			fmt.Fprint(ch, strings.ReplaceAll(out, "\n", "\r\n")+"\r\n")
		}
		fmt.Fprintf(ch, "%s#", fs.hostname)
	}
}

func targetFor(t *testing.T, name, hostport string) domain.SwitchTarget {
	t.Helper()

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		t.Fatalf("split %s: %v", hostport, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("port %s: %v", portStr, err)
	}
	return domain.SwitchTarget{Name: name, Address: host, Port: port, Platform: domain.DefaultPlatform}
}
