package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joho/godotenv"

	"macfinder/internal/adapter"
	"macfinder/internal/cli"
	"macfinder/internal/codec"
	"macfinder/internal/config"
	"macfinder/internal/domain"
	"macfinder/internal/loader"
	"macfinder/internal/logger"
	"macfinder/internal/report"
	"macfinder/internal/repository"
	"macfinder/internal/repository/sqlite"
	"macfinder/internal/service"
)

// run loads configuration and inventory, searches the fleet and writes
// the report to out. It returns the process exit code.
func run(ctx context.Context, opt *cli.Options, out io.Writer) (int, error) {
	cfg, err := loadConfig(opt)
	if err != nil {
		return exitError, err
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return exitError, err
	}
	log := logger.New(level)
	slog.SetDefault(log)

	if err := loadEnv(cfg.Credentials.EnvFile); err != nil {
		return exitError, err
	}

	var store repository.CredentialRepository
	if cfg.Credentials.Store != "" {
		repo, err := sqlite.New(cfg.Credentials.Store)
		if err != nil {
			return exitError, fmt.Errorf("credential store: %w", err)
		}
		defer repo.Close()
		store = repo
	}

	if opt.CredentialAction() {
		if store == nil {
			return exitUsage, errors.New("credential commands need --credential-store or credentials.store")
		}
		return exitOK, manageCredentials(ctx, opt, store, out)
	}

	inv, err := loader.LoadSwitches(cfg.Inventory.Switches, cfg.Inventory.Format, cfg.Inventory.Group)
	if err != nil {
		return exitError, err
	}
	if opt.PrintInventory {
		if err := codec.NewYAMLCodec().Export(inv, out); err != nil {
			return exitError, err
		}
		return exitOK, nil
	}

	macs, err := loadMACs(cfg, opt)
	if err != nil {
		return exitError, err
	}
	if len(macs) == 0 {
		return exitUsage, errors.New("no MAC addresses to search for")
	}

	fleet, err := buildFleet(cfg, inv, store, log)
	if err != nil {
		return exitError, err
	}

	log.Debug("configuration", "summary", cfg.Summary())

	rep, err := fleet.Run(ctx, inv.Switches, macs)
	if err != nil {
		return exitError, err
	}
	if err := report.Render(out, rep, cfg.Report.Format, cfg.Report.Verbose); err != nil {
		return exitError, err
	}

	if ctx.Err() != nil || report.Incomplete(rep) {
		return exitIncomplete, nil
	}
	return exitOK, nil
}

func loadConfig(opt *cli.Options) (*config.Config, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opt.Config != "" {
		cfg, path, err = config.LoadFromPath(opt.Config)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	opt.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// loadEnv reads a dotenv file into the environment without overriding
// variables already set. Without an explicit file a missing ./.env is fine.
func loadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file: %w", err)
	}
	return nil
}

func loadMACs(cfg *config.Config, opt *cli.Options) ([]domain.MacQuery, error) {
	var macs []domain.MacQuery
	if cfg.Inventory.EndDevices != "" {
		var err error
		if macs, err = loader.LoadEndDevices(cfg.Inventory.EndDevices); err != nil {
			return nil, err
		}
	}

	extra, err := loader.MACsFromArgs(opt.Args.MACs)
	if err != nil {
		return nil, err
	}
	return loader.MergeQueries(macs, extra), nil
}

// buildFleet wires the session dialer, command templates, credential
// providers and preflight into a fleet coordinator
func buildFleet(cfg *config.Config, inv *domain.Inventory, store repository.CredentialRepository, log *slog.Logger) (*service.Fleet, error) {
	sources := make(map[string]string, len(cfg.Commands)+len(cfg.CommandFiles))
	for name, text := range cfg.Commands {
		sources[name] = text
	}
	files, err := adapter.LoadCommandFiles(cfg.CommandFiles)
	if err != nil {
		return nil, domain.ConfigError("command_files", "%v", err)
	}
	for name, text := range files {
		sources[name] = text
	}
	commands, err := adapter.NewTemplateRenderer(sources)
	if err != nil {
		return nil, domain.ConfigError("commands", "%v", err)
	}

	dialer := adapter.NewSSHDialer(adapter.SessionConfig{
		ConnectTimeout: cfg.Session.ConnectTimeout.Duration(),
		CommandTimeout: cfg.Session.CommandTimeout.Duration(),
		SetupCommands:  cfg.Session.SetupCommands,
		KnownHostsFile: cfg.Session.KnownHosts,
		TerminalWidth:  cfg.Session.TerminalWidth,
	}, log)

	creds := service.CredentialChain{service.NamedCredentials(inv.Credentials)}
	if store != nil {
		creds = append(creds, service.NewStoreCredentials(store))
	}
	if env := service.EnvCredentials(); env != nil {
		creds = append(creds, env)
	}
	if cfg.Credentials.PromptEnabled() {
		creds = append(creds, service.NewPromptCredentials(cfg.Credentials.Username))
	}

	search, err := service.ParseSearchMode(cfg.Fleet.Search)
	if err != nil {
		return nil, domain.ConfigError("fleet.search", "%v", err)
	}

	events := service.NewEventBus(log)
	prober := service.NewProber(dialer, creds, commands, events, log)
	fleet := service.NewFleet(prober, service.FleetConfig{
		MaxConcurrent: cfg.Fleet.MaxConcurrent,
		Search:        search,
	}, events, log)

	if cfg.Preflight.Enabled {
		fleet.WithPreflight(adapter.NewPreflight(
			adapter.WithPreflightTimeout(cfg.Preflight.Timeout.Duration()),
			adapter.WithPreflightLogger(log),
		))
	}
	return fleet, nil
}

// manageCredentials runs the credential store commands
func manageCredentials(ctx context.Context, opt *cli.Options, store repository.CredentialRepository, out io.Writer) error {
	switch {
	case opt.AddCredential != "":
		login, err := service.NewPromptCredentials(opt.Username).Credential(ctx, domain.SwitchTarget{})
		if err != nil {
			return err
		}
		cred := *login
		cred.ID = opt.AddCredential
		cred.Source = domain.CredentialSourceStore
		if err := store.PutCredential(ctx, &cred); err != nil {
			return err
		}
		fmt.Fprintf(out, "stored credential %s for user %s\n", cred.ID, cred.Username)

	case opt.DeleteCredential != "":
		if err := store.DeleteCredential(ctx, opt.DeleteCredential); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted credential %s\n", opt.DeleteCredential)

	case opt.ListCredentials:
		summaries, err := store.ListCredentials(ctx)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(out, "no stored credentials")
		}
		for _, s := range summaries {
			fmt.Fprintf(out, "%s\t%s\t%s\n", s.ID, s.Type, s.Username)
		}
	}
	return nil
}
