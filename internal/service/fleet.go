package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"macfinder/internal/adapter"
	"macfinder/internal/domain"
)

// SearchMode selects whether a located MAC is still searched for on other switches
type SearchMode string

const (
	// SearchExhaustive probes every switch for every MAC
	SearchExhaustive SearchMode = "exhaustive"
	// SearchFirstMatch stops looking for a MAC once any switch has it on an access port
	SearchFirstMatch SearchMode = "first_match"
)

// ParseSearchMode validates a configured search mode; "" means exhaustive
func ParseSearchMode(s string) (SearchMode, error) {
	switch SearchMode(s) {
	case "", SearchExhaustive:
		return SearchExhaustive, nil
	case SearchFirstMatch:
		return SearchFirstMatch, nil
	}
	return "", fmt.Errorf("unknown search mode %q (want %s or %s)", s, SearchExhaustive, SearchFirstMatch)
}

// FleetConfig holds configuration for fleet runs
type FleetConfig struct {
	// MaxConcurrent caps simultaneous switch sessions; 0 means one per switch
	MaxConcurrent int
	Search        SearchMode
}

// Reachability reports switches known to be unreachable before dialing,
// keyed by SwitchTarget.HostPort
type Reachability interface {
	Unreachable(ctx context.Context, targets []domain.SwitchTarget) (map[string]bool, error)
}

// Fleet runs one Prober per switch concurrently and gathers every result
type Fleet struct {
	prober    *Prober
	commands  adapter.CommandRenderer
	config    FleetConfig
	preflight Reachability
	events    *EventBus
	logger    *slog.Logger
}

// NewFleet creates a fleet coordinator around prober
func NewFleet(prober *Prober, config FleetConfig, events *EventBus, logger *slog.Logger) *Fleet {
	if config.Search == "" {
		config.Search = SearchExhaustive
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fleet{
		prober:   prober,
		commands: prober.commands,
		config:   config,
		events:   events,
		logger:   logger,
	}
}

// WithPreflight enables a reachability check before any session is opened
func (f *Fleet) WithPreflight(r Reachability) *Fleet {
	f.preflight = r
	return f
}

// Report is the outcome of one fleet run
type Report struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Search   SearchMode           `json:"search" yaml:"search"`
	Started  time.Time            `json:"started" yaml:"started"`
	Finished time.Time            `json:"finished" yaml:"finished"`
	Switches []domain.SwitchTarget `json:"switches" yaml:"switches"`
	MACs     []domain.MacQuery    `json:"macs" yaml:"macs"`
	Results  []domain.MatchResult `json:"results" yaml:"results"`
}

type switchResults struct {
	index   int
	results []domain.MatchResult
}

// Run probes every switch for every MAC. Results are grouped by switch in
// inventory order, MAC order within a switch. The only error is a
// configuration error, returned before any session is opened.
func (f *Fleet) Run(ctx context.Context, switches []domain.SwitchTarget, macs []domain.MacQuery) (Report, error) {
	report := Report{
		RunID:    uuid.NewString(),
		Search:   f.config.Search,
		Started:  time.Now(),
		Switches: switches,
		MACs:     macs,
	}

	if err := f.validate(switches, macs); err != nil {
		return report, err
	}

	run := probeRun{id: report.RunID}
	if f.config.Search == SearchFirstMatch {
		run.matched = newMatchSet()
	}

	f.events.Publish(Event{
		Type:    EventRunStarted,
		RunID:   run.id,
		Message: fmt.Sprintf("searching %d switches for %d MACs", len(switches), len(macs)),
	})

	unreachable := f.checkReachability(ctx, run, switches)

	p := pool.NewWithResults[switchResults]()
	if f.config.MaxConcurrent > 0 {
		p = p.WithMaxGoroutines(f.config.MaxConcurrent)
	}

	for i, target := range switches {
		if unreachable[target.HostPort()] {
			p.Go(func() switchResults {
				return switchResults{index: i, results: f.unreachableResults(run, target, macs)}
			})
			continue
		}
		p.Go(func() switchResults {
			return switchResults{index: i, results: f.prober.probe(ctx, run, target, macs)}
		})
	}

	bySwitch := make([][]domain.MatchResult, len(switches))
	for _, sr := range p.Wait() {
		bySwitch[sr.index] = sr.results
	}

	report.Results = make([]domain.MatchResult, 0, len(switches)*len(macs))
	for _, results := range bySwitch {
		report.Results = append(report.Results, results...)
	}
	report.Finished = time.Now()

	f.events.Publish(Event{
		Type:    EventRunFinished,
		RunID:   run.id,
		Message: fmt.Sprintf("%d results in %s", len(report.Results), report.Finished.Sub(report.Started).Round(time.Millisecond)),
	})

	return report, nil
}

// validate fails fast on inventory that would break the coverage guarantee
func (f *Fleet) validate(switches []domain.SwitchTarget, macs []domain.MacQuery) error {
	seen := make(map[string]bool, len(switches))
	for _, target := range switches {
		if err := target.Validate(); err != nil {
			return domain.ConfigError("inventory", "%v", err)
		}
		if seen[target.HostPort()] {
			return domain.ConfigError("inventory", "duplicate switch address %s", target.Address)
		}
		seen[target.HostPort()] = true
	}

	seenMAC := make(map[string]bool, len(macs))
	for _, q := range macs {
		mac, err := domain.NormalizeMAC(q.MAC)
		if err != nil {
			return domain.ConfigError("end devices", "%v", err)
		}
		if mac != q.MAC {
			return domain.ConfigError("end devices", "MAC %q is not normalized", q.MAC)
		}
		if seenMAC[mac] {
			return domain.ConfigError("end devices", "duplicate MAC %s", domain.CiscoMAC(mac))
		}
		seenMAC[mac] = true

		if _, err := f.commands.Render(adapter.CommandForwardingLookup, adapter.MACParams(q)); err != nil {
			return domain.ConfigError("commands", "%s: %v", adapter.CommandForwardingLookup, err)
		}
	}

	if _, err := f.commands.Render(adapter.CommandSwitchportStatus, adapter.PortParams("GigabitEthernet1/0/1")); err != nil {
		return domain.ConfigError("commands", "%s: %v", adapter.CommandSwitchportStatus, err)
	}

	return nil
}

func (f *Fleet) checkReachability(ctx context.Context, run probeRun, switches []domain.SwitchTarget) map[string]bool {
	if f.preflight == nil || len(switches) == 0 {
		return nil
	}

	unreachable, err := f.preflight.Unreachable(ctx, switches)
	if err != nil {
		// Without a preflight answer every switch is dialed
		f.logger.Warn("preflight failed", "run", run.id, "error", err)
		return nil
	}
	return unreachable
}

func (f *Fleet) unreachableResults(run probeRun, target domain.SwitchTarget, macs []domain.MacQuery) []domain.MatchResult {
	err := domain.NewError(domain.KindUnreachable, "preflight", target.Address, fmt.Errorf("ssh port %d not open", sshPort(target)))
	f.events.Publish(Event{Type: EventSwitchFailed, RunID: run.id, Switch: target.DisplayName(), Err: err.Error()})

	results := make([]domain.MatchResult, len(macs))
	for i, q := range macs {
		results[i] = domain.NewMatchResult(target, q).Failure(err)
	}
	return results
}

func sshPort(target domain.SwitchTarget) int {
	if target.Port == 0 {
		return domain.DefaultSSHPort
	}
	return target.Port
}
