package adapter

import (
	"log/slog"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

// PreflightOption is a functional option for configuring Preflight
type PreflightOption func(*Preflight)

// WithPreflightTimeout sets the timeout for the entire nmap scan
func WithPreflightTimeout(d time.Duration) PreflightOption {
	return func(p *Preflight) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPreflightLogger sets the logger for nmap warnings
func WithPreflightLogger(logger *slog.Logger) PreflightOption {
	return func(p *Preflight) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithHostDiscovery makes nmap ping hosts before the port probe. Off by
// default (-Pn): switch management networks often drop ICMP.
func WithHostDiscovery(enabled bool) PreflightOption {
	return func(p *Preflight) {
		p.hostDiscovery = enabled
	}
}

// WithTiming sets the nmap timing template (-T0 to -T5)
func WithTiming(t nmap.Timing) PreflightOption {
	return func(p *Preflight) {
		p.timing = &t
	}
}

// scanOptions builds the nmap options for one preflight run
func (p *Preflight) scanOptions(addresses []string, ports string) []nmap.Option {
	opts := []nmap.Option{
		nmap.WithTargets(addresses...),
		nmap.WithPorts(ports),
	}
	if !p.hostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}
	if p.timing != nil {
		opts = append(opts, nmap.WithTimingTemplate(*p.timing))
	}
	return opts
}
