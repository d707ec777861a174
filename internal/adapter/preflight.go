package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"macfinder/internal/domain"
)

// Preflight checks with nmap which switches have their SSH port open,
// so unreachable switches are reported without waiting on a dial timeout
type Preflight struct {
	timeout       time.Duration
	logger        *slog.Logger
	hostDiscovery bool
	timing        *nmap.Timing
}

// NewPreflight creates a preflight checker. The scan is bounded by two
// minutes unless WithPreflightTimeout says otherwise.
func NewPreflight(opts ...PreflightOption) *Preflight {
	p := &Preflight{
		timeout: 2 * time.Minute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Unreachable returns the host:port of targets nmap positively saw as down
// or with their SSH port not open. Targets nmap did not report on are
// left to the dialer.
func (p *Preflight) Unreachable(ctx context.Context, targets []domain.SwitchTarget) (map[string]bool, error) {
	if len(targets) == 0 {
		return map[string]bool{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(ctx, p.scanOptions(preflightAddresses(targets), preflightPorts(targets))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		p.logger.Warn("nmap warnings", "warnings", *warnings)
	}

	return unreachableFromRun(result, targets), nil
}

// unreachableFromRun maps scan results back onto inventory targets
func unreachableFromRun(run *nmap.Run, targets []domain.SwitchTarget) map[string]bool {
	unreachable := make(map[string]bool)
	if run == nil {
		return unreachable
	}

	for _, target := range targets {
		host, ok := findHost(run.Hosts, target.Address)
		if !ok {
			continue
		}
		if host.Status.State != "" && host.Status.State != "up" {
			unreachable[target.HostPort()] = true
			continue
		}

		port := target.Port
		if port == 0 {
			port = domain.DefaultSSHPort
		}
		if !portOpen(host.Ports, port) {
			unreachable[target.HostPort()] = true
		}
	}

	return unreachable
}

func findHost(hosts []nmap.Host, address string) (nmap.Host, bool) {
	for _, host := range hosts {
		for _, addr := range host.Addresses {
			if strings.EqualFold(addr.Addr, address) {
				return host, true
			}
		}
		for _, name := range host.Hostnames {
			if strings.EqualFold(name.Name, address) {
				return host, true
			}
		}
	}
	return nmap.Host{}, false
}

func portOpen(ports []nmap.Port, id int) bool {
	for _, port := range ports {
		if int(port.ID) == id {
			return port.State.State == "open"
		}
	}
	return false
}

func preflightAddresses(targets []domain.SwitchTarget) []string {
	addrs := make([]string, 0, len(targets))
	for _, t := range targets {
		addrs = append(addrs, t.Address)
	}
	return addrs
}

func preflightPorts(targets []domain.SwitchTarget) string {
	seen := make(map[int]bool)
	for _, t := range targets {
		port := t.Port
		if port == 0 {
			port = domain.DefaultSSHPort
		}
		seen[port] = true
	}

	ports := make([]int, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	parts := make([]string, len(ports))
	for i, port := range ports {
		parts[i] = strconv.Itoa(port)
	}
	return strings.Join(parts, ",")
}
