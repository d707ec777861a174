package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macfinder/internal/adapter"
	"macfinder/internal/domain"
)

var switchB = domain.SwitchTarget{Name: "switchB", Address: "10.0.0.2", Platform: domain.DefaultPlatform}

func newTestFleet(dialer adapter.Dialer, config FleetConfig, events *EventBus) *Fleet {
	return NewFleet(newTestProber(dialer, sharedCreds(), events), config, events, nil)
}

type fakeReachability struct {
	down map[string]bool
	err  error
}

func (f fakeReachability) Unreachable(context.Context, []domain.SwitchTarget) (map[string]bool, error) {
	return f.down, f.err
}

func TestFleetEndToEnd(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#").withMAC("0000.1111.2222", "Gi1/0/1", "static access"))
	// switchB has no device: connection refused

	report, err := newTestFleet(dialer, FleetConfig{}, nil).Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	a, b := report.Results[0], report.Results[1]

	assert.Equal(t, "switchA", a.Switch)
	assert.Equal(t, "Gi1/0/1", a.Port)
	assert.Equal(t, domain.AccessPortMatch, a.Classification)

	assert.Equal(t, "switchB", b.Switch)
	assert.Empty(t, b.Port)
	assert.Equal(t, domain.SwitchUnreachable, b.Classification)

	assert.Equal(t, SearchExhaustive, report.Search)
	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	assert.False(t, report.Finished.Before(report.Started))
}

func TestFleetCoverage(t *testing.T) {
	authFail := newFakeDevice("switchC#")
	authFail.openErr = domain.NewError(domain.KindAuthFailed, "connect", "10.0.0.3", errors.New("unable to authenticate"))

	dialer := newFakeDialer()
	dialer.add("10.0.0.1", newFakeDevice("switchA#").withMAC("0000.1111.2222", "Gi1/0/1", "static access"))
	dialer.add("10.0.0.3", authFail)
	dialer.add("10.0.0.4", newFakeDevice("switchD#").withMAC("0000.1111.2222", "Te1/1/1", "trunk"))

	switches := []domain.SwitchTarget{
		{Name: "switchA", Address: "10.0.0.1"},
		{Name: "switchB", Address: "10.0.0.2"},
		{Name: "switchC", Address: "10.0.0.3"},
		{Name: "switchD", Address: "10.0.0.4"},
	}
	macs := []domain.MacQuery{
		mustQuery("0000.1111.2222", ""),
		mustQuery("0000.3333.4444", ""),
		mustQuery("0000.5555.6666", ""),
	}

	report, err := newTestFleet(dialer, FleetConfig{MaxConcurrent: 2}, nil).Run(context.Background(), switches, macs)
	require.NoError(t, err)
	require.Len(t, report.Results, len(switches)*len(macs))

	pairs := make(map[[2]string]domain.Classification)
	for _, r := range report.Results {
		key := [2]string{r.Address, r.MAC}
		_, dup := pairs[key]
		assert.False(t, dup, "duplicate result for %v", key)
		pairs[key] = r.Classification
	}

	assert.Equal(t, domain.AccessPortMatch, pairs[[2]string{"10.0.0.1", "000011112222"}])
	assert.Equal(t, domain.NotFound, pairs[[2]string{"10.0.0.1", "000033334444"}])
	assert.Equal(t, domain.SwitchUnreachable, pairs[[2]string{"10.0.0.2", "000055556666"}])
	assert.Equal(t, domain.AuthFailed, pairs[[2]string{"10.0.0.3", "000011112222"}])
	assert.Equal(t, domain.NonAccessPortIgnored, pairs[[2]string{"10.0.0.4", "000011112222"}])

	// Grouped by switch in inventory order, MAC order within a switch
	for i, r := range report.Results {
		assert.Equal(t, switches[i/len(macs)].Address, r.Address)
		assert.Equal(t, macs[i%len(macs)].MAC, r.MAC)
	}

	assert.LessOrEqual(t, dialer.maxLive, 2)
	assert.Equal(t, 0, dialer.live, "every session closed")
}

func TestFleetConcurrencyCap(t *testing.T) {
	dialer := newFakeDialer()
	var switches []domain.SwitchTarget
	for _, addr := range []string{"10.0.1.1", "10.0.1.2", "10.0.1.3", "10.0.1.4", "10.0.1.5"} {
		dialer.add(addr, newFakeDevice("sw#"))
		switches = append(switches, domain.SwitchTarget{Address: addr})
	}

	report, err := newTestFleet(dialer, FleetConfig{MaxConcurrent: 1}, nil).Run(context.Background(), switches,
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	assert.Len(t, report.Results, 5)
	assert.Equal(t, 1, dialer.maxLive)
	assert.Equal(t, 5, dialer.closed)
}

func TestFleetFirstMatch(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#").withMAC("0000.1111.2222", "Gi1/0/1", "static access"))
	dialer.add(switchB.Address, newFakeDevice("switchB#").withMAC("0000.1111.2222", "Gi1/0/9", "static access"))

	// One worker runs switches in inventory order
	fleet := newTestFleet(dialer, FleetConfig{MaxConcurrent: 1, Search: SearchFirstMatch}, nil)
	report, err := fleet.Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.AccessPortMatch, report.Results[0].Classification)
	assert.Equal(t, domain.FoundElsewhere, report.Results[1].Classification)
	assert.Equal(t, SearchFirstMatch, report.Search)
	assert.Equal(t, 1, dialer.openCount(), "switchB never dialed")
}

func TestFleetExhaustiveSearchesEverySwitch(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#").withMAC("0000.1111.2222", "Gi1/0/1", "static access"))
	dialer.add(switchB.Address, newFakeDevice("switchB#").withMAC("0000.1111.2222", "Gi1/0/9", "static access"))

	report, err := newTestFleet(dialer, FleetConfig{MaxConcurrent: 1}, nil).Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.AccessPortMatch, report.Results[0].Classification)
	assert.Equal(t, domain.AccessPortMatch, report.Results[1].Classification)
	assert.Equal(t, 2, dialer.openCount())
}

func TestFleetPreflight(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#"))
	dialer.add(switchB.Address, newFakeDevice("switchB#"))

	fleet := newTestFleet(dialer, FleetConfig{}, nil).
		WithPreflight(fakeReachability{down: map[string]bool{switchB.HostPort(): true}})

	report, err := fleet.Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.NotFound, report.Results[0].Classification)
	assert.Equal(t, domain.SwitchUnreachable, report.Results[1].Classification)
	assert.Contains(t, report.Results[1].Error, "preflight")
	assert.Equal(t, []string{switchA.Address}, dialer.opened)
}

func TestFleetPreflightSameHostOtherPort(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#"))

	console := domain.SwitchTarget{Name: "switchA-alt", Address: switchA.Address, Port: 2222, Platform: domain.DefaultPlatform}
	fleet := newTestFleet(dialer, FleetConfig{}, nil).
		WithPreflight(fakeReachability{down: map[string]bool{console.HostPort(): true}})

	report, err := fleet.Run(context.Background(),
		[]domain.SwitchTarget{switchA, console},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.Equal(t, domain.NotFound, report.Results[0].Classification)
	assert.Equal(t, domain.SwitchUnreachable, report.Results[1].Classification)
	assert.Equal(t, []string{switchA.Address}, dialer.opened)
}

func TestFleetPreflightErrorDialsEverySwitch(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#"))
	dialer.add(switchB.Address, newFakeDevice("switchB#"))

	fleet := newTestFleet(dialer, FleetConfig{}, nil).
		WithPreflight(fakeReachability{err: errors.New("nmap not installed")})

	report, err := fleet.Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	assert.Len(t, report.Results, 2)
	assert.Equal(t, 2, dialer.openCount())
}

func TestFleetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#"))

	report, err := newTestFleet(dialer, FleetConfig{}, nil).Run(ctx,
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", ""), mustQuery("0000.3333.4444", "")})
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.Equal(t, domain.Canceled, r.Classification)
	}
}

func TestFleetConfigurationErrors(t *testing.T) {
	badTemplates, err := adapter.NewTemplateRenderer(map[string]string{
		adapter.CommandSwitchportStatus: "show interfaces {{ .interface }} switchport",
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		switches []domain.SwitchTarget
		macs     []domain.MacQuery
		commands adapter.CommandRenderer
	}{
		{
			name:     "empty address",
			switches: []domain.SwitchTarget{switchA, {Name: "blank"}},
			macs:     []domain.MacQuery{mustQuery("0000.1111.2222", "")},
		},
		{
			name:     "duplicate address",
			switches: []domain.SwitchTarget{switchA, {Name: "again", Address: switchA.Address}},
			macs:     []domain.MacQuery{mustQuery("0000.1111.2222", "")},
		},
		{
			name:     "invalid MAC",
			switches: []domain.SwitchTarget{switchA},
			macs:     []domain.MacQuery{{MAC: "not-a-mac"}},
		},
		{
			name:     "unnormalized MAC",
			switches: []domain.SwitchTarget{switchA},
			macs:     []domain.MacQuery{{MAC: "0000.1111.2222"}},
		},
		{
			name:     "duplicate MAC",
			switches: []domain.SwitchTarget{switchA},
			macs:     []domain.MacQuery{mustQuery("0000.1111.2222", ""), mustQuery("00-00-11-11-22-22", "")},
		},
		{
			name:     "template with unknown parameter",
			switches: []domain.SwitchTarget{switchA},
			macs:     []domain.MacQuery{mustQuery("0000.1111.2222", "")},
			commands: badTemplates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := newFakeDialer()
			dialer.add(switchA.Address, newFakeDevice("switchA#"))

			commands := tt.commands
			if commands == nil {
				commands = defaultRenderer()
			}
			prober := NewProber(dialer, sharedCreds(), commands, nil, nil)

			_, err := NewFleet(prober, FleetConfig{}, nil, nil).Run(context.Background(), tt.switches, tt.macs)
			require.Error(t, err)
			assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
			assert.Equal(t, 0, dialer.openCount(), "no session before validation passes")
		})
	}
}

func TestFleetEventsCarryRunID(t *testing.T) {
	dialer := newFakeDialer()
	dialer.add(switchA.Address, newFakeDevice("switchA#").withMAC("0000.1111.2222", "Gi1/0/1", "static access"))

	events := NewEventBus(nil)
	ch := make(chan Event, 32)
	events.Subscribe(ch)

	report, err := newTestFleet(dialer, FleetConfig{}, events).Run(context.Background(),
		[]domain.SwitchTarget{switchA, switchB},
		[]domain.MacQuery{mustQuery("0000.1111.2222", "")})
	require.NoError(t, err)

	seen := make(map[EventType]int)
	for len(ch) > 0 {
		ev := <-ch
		assert.Equal(t, report.RunID, ev.RunID)
		assert.False(t, ev.Time.IsZero())
		seen[ev.Type]++
	}

	assert.Equal(t, 1, seen[EventRunStarted])
	assert.Equal(t, 1, seen[EventSwitchConnected])
	assert.Equal(t, 1, seen[EventSwitchFailed])
	assert.Equal(t, 1, seen[EventMACLocated])
	assert.Equal(t, 1, seen[EventRunFinished])
}

func TestFleetEmptyInventory(t *testing.T) {
	report, err := newTestFleet(newFakeDialer(), FleetConfig{}, nil).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
}

func TestParseSearchMode(t *testing.T) {
	mode, err := ParseSearchMode("")
	require.NoError(t, err)
	assert.Equal(t, SearchExhaustive, mode)

	mode, err = ParseSearchMode("first_match")
	require.NoError(t, err)
	assert.Equal(t, SearchFirstMatch, mode)

	_, err = ParseSearchMode("fastest")
	assert.Error(t, err)
}
