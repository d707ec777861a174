package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"macfinder/internal/adapter"
	"macfinder/internal/domain"
	"macfinder/internal/parser"
)

// Prober locates a list of MACs on one switch over a single session
type Prober struct {
	dialer   adapter.Dialer
	creds    CredentialProvider
	commands adapter.CommandRenderer
	events   *EventBus
	logger   *slog.Logger
}

// NewProber creates a prober. events may be nil.
func NewProber(dialer adapter.Dialer, creds CredentialProvider, commands adapter.CommandRenderer, events *EventBus, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		dialer:   dialer,
		creds:    creds,
		commands: commands,
		events:   events,
		logger:   logger,
	}
}

// matchSet records MACs already located on an access port during a
// first-match run. Safe for concurrent use.
type matchSet struct {
	mu    sync.RWMutex
	found map[string]string
}

func newMatchSet() *matchSet {
	return &matchSet{found: make(map[string]string)}
}

// add records mac as found on the switch at address sw; the first report wins
func (m *matchSet) add(mac, sw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.found[mac]; !ok {
		m.found[mac] = sw
	}
}

// foundOn returns the switch mac was found on, if any
func (m *matchSet) foundOn(mac string) (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sw, ok := m.found[mac]
	return sw, ok
}

// probeRun carries per-run state shared by every prober in a fleet run
type probeRun struct {
	id      string
	matched *matchSet
}

// Probe searches target for every MAC in macs and returns exactly one
// result per MAC, in input order. It never returns early without results:
// connect failures are reported as a failure classification on every MAC.
func (p *Prober) Probe(ctx context.Context, target domain.SwitchTarget, macs []domain.MacQuery) []domain.MatchResult {
	return p.probe(ctx, probeRun{}, target, macs)
}

func (p *Prober) probe(ctx context.Context, run probeRun, target domain.SwitchTarget, macs []domain.MacQuery) []domain.MatchResult {
	results := make([]domain.MatchResult, len(macs))
	pending := make([]int, 0, len(macs))
	for i, q := range macs {
		results[i] = domain.NewMatchResult(target, q)
		if p.skipFound(&results[i], run.matched) {
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) == 0 {
		p.publish(run, Event{Type: EventSwitchSkipped, Switch: target.DisplayName(), Message: "all MACs already located"})
		return results
	}

	fail := func(from int, err error) {
		for _, i := range pending[from:] {
			results[i] = results[i].Failure(err)
		}
	}

	if err := ctx.Err(); err != nil {
		fail(0, domain.NewError(domain.KindCanceled, "probe", target.Address, err))
		return results
	}

	cred, err := p.creds.Credential(ctx, target)
	if err != nil {
		err = domain.NewError(domain.KindAuthFailed, "credentials", target.Address, err)
		p.publish(run, Event{Type: EventSwitchFailed, Switch: target.DisplayName(), Err: err.Error()})
		fail(0, err)
		return results
	}

	session, err := p.dialer.Open(ctx, target, cred)
	if err != nil {
		p.publish(run, Event{Type: EventSwitchFailed, Switch: target.DisplayName(), Err: err.Error()})
		fail(0, err)
		return results
	}
	defer func() {
		if err := adapter.CloseSession(session); err != nil {
			p.logger.Debug("close session", "switch", target.DisplayName(), "error", err)
		}
	}()

	p.publish(run, Event{
		Type:    EventSwitchConnected,
		Switch:  target.DisplayName(),
		Message: fmt.Sprintf("Connected to %s", session.Prompt()),
	})

	for n, i := range pending {
		if err := ctx.Err(); err != nil {
			fail(n, domain.NewError(domain.KindCanceled, "probe", target.Address, err))
			break
		}
		if p.skipFound(&results[i], run.matched) {
			continue
		}

		r, err := p.locate(ctx, run, session, target, macs[i], results[i])
		if err == nil {
			results[i] = r
			if r.Classification.Found() {
				if run.matched != nil {
					run.matched.add(r.MAC, r.Address)
				}
				p.publish(run, Event{
					Type:    EventMACLocated,
					Switch:  r.Switch,
					MAC:     domain.CiscoMAC(r.MAC),
					Message: fmt.Sprintf("found on access port %s vlan %d", r.Port, r.VLAN),
				})
			}
			continue
		}

		p.publish(run, Event{Type: EventCommandFailed, Switch: target.DisplayName(), MAC: domain.CiscoMAC(macs[i].MAC), Err: err.Error()})

		if adapter.IsChannelDead(err) || domain.IsKind(err, domain.KindCanceled) {
			results[i] = r.Failure(err)
			fail(n+1, err)
			break
		}

		results[i] = r.Failure(err)
		if !domain.IsKind(err, domain.KindTimeout) {
			results[i].Classification = domain.CommandFailed
		}
	}

	p.publish(run, Event{Type: EventSwitchDone, Switch: target.DisplayName()})
	return results
}

// skipFound marks r FoundElsewhere when another switch already located its MAC
func (p *Prober) skipFound(r *domain.MatchResult, matched *matchSet) bool {
	sw, ok := matched.foundOn(r.MAC)
	if !ok || sw == r.Address {
		return false
	}
	r.Classification = domain.FoundElsewhere
	r.Error = ""
	return true
}

// locate runs the lookup and port check for one MAC. On error the
// returned result still carries whatever was learned before the failure.
func (p *Prober) locate(ctx context.Context, run probeRun, session adapter.Session, target domain.SwitchTarget, q domain.MacQuery, r domain.MatchResult) (domain.MatchResult, error) {
	cmd, err := p.commands.Render(adapter.CommandForwardingLookup, adapter.MACParams(q))
	if err != nil {
		return r, domain.NewError(domain.KindConfiguration, "render", adapter.CommandForwardingLookup, err)
	}
	out, err := session.Execute(ctx, cmd)
	if err != nil {
		return r, err
	}

	entry, ok := parser.ForwardingTable(out, q.MAC)
	if !ok {
		if strings.Contains(strings.ToLower(out), q.Cisco()) {
			p.publish(run, Event{
				Type:    EventParseMismatch,
				Switch:  target.DisplayName(),
				MAC:     q.Cisco(),
				Message: "unrecognized MAC table line",
				Err:     firstLine(out),
			})
		}
		r.Classification = domain.NotFound
		return r, nil
	}
	r.Port = entry.Port
	r.VLAN = entry.VLAN

	cmd, err = p.commands.Render(adapter.CommandSwitchportStatus, adapter.PortParams(entry.Port))
	if err != nil {
		return r, domain.NewError(domain.KindConfiguration, "render", adapter.CommandSwitchportStatus, err)
	}
	out, err = session.Execute(ctx, cmd)
	if err != nil {
		return r, err
	}

	status, ok := parser.SwitchportMode(out)
	if !ok {
		p.publish(run, Event{
			Type:    EventParseMismatch,
			Switch:  target.DisplayName(),
			MAC:     q.Cisco(),
			Message: fmt.Sprintf("no operational mode for %s", entry.Port),
		})
	}
	r.Mode = status.OperationalMode

	if status.IsAccess() {
		r.Classification = domain.AccessPortMatch
	} else {
		r.Classification = domain.NonAccessPortIgnored
	}
	return r, nil
}

func (p *Prober) publish(run probeRun, event Event) {
	event.RunID = run.id
	p.events.Publish(event)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
