// Package config provides run configuration for macfinder.
//
// Config file locations (priority order):
//  1. $MACFINDER_CONFIG
//  2. ./macfinder.yaml
//  3. $XDG_CONFIG_HOME/macfinder/config.yaml
//  4. ~/.config/macfinder/config.yaml
//  5. /etc/macfinder/config.yaml
//
// Paths inside a config file are relative to the file's directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// DefaultConfig returns sensible defaults for a run without a config file
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Inventory.Format == "" {
		c.Inventory.Format = InventoryFormatNative
	}
	if c.Session.ConnectTimeout == 0 {
		c.Session.ConnectTimeout = Duration(10 * time.Second)
	}
	if c.Session.CommandTimeout == 0 {
		c.Session.CommandTimeout = Duration(30 * time.Second)
	}
	if c.Session.SetupCommands == nil {
		c.Session.SetupCommands = []string{"terminal length 0", "terminal width 511"}
	}
	if c.Session.TerminalWidth == 0 {
		c.Session.TerminalWidth = 511
	}
	if c.Fleet.Search == "" {
		c.Fleet.Search = "exhaustive"
	}
	if c.Preflight.Timeout == 0 {
		c.Preflight.Timeout = Duration(2 * time.Minute)
	}
	if c.Report.Format == "" {
		c.Report.Format = ReportText
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) resolvePaths(baseDir string) {
	c.Inventory.Switches = resolvePath(baseDir, c.Inventory.Switches)
	c.Inventory.EndDevices = resolvePath(baseDir, c.Inventory.EndDevices)
	c.Session.KnownHosts = resolvePath(baseDir, c.Session.KnownHosts)
	c.Credentials.Store = resolvePath(baseDir, c.Credentials.Store)
	c.Credentials.EnvFile = resolvePath(baseDir, c.Credentials.EnvFile)
	for name, path := range c.CommandFiles {
		c.CommandFiles[name] = resolvePath(baseDir, path)
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.Inventory.Format {
	case InventoryFormatNative, InventoryFormatJSON, InventoryFormatAnsible:
	default:
		return fmt.Errorf("inventory.format: unknown format %q", c.Inventory.Format)
	}
	if c.Session.ConnectTimeout < 0 || c.Session.CommandTimeout < 0 {
		return fmt.Errorf("session: timeouts must be positive")
	}
	if c.Fleet.MaxConcurrent < 0 {
		return fmt.Errorf("fleet.max_concurrent: must be 0 (unbounded) or positive, got %d", c.Fleet.MaxConcurrent)
	}
	switch c.Fleet.Search {
	case "exhaustive", "first_match":
	default:
		return fmt.Errorf("fleet.search: unknown mode %q", c.Fleet.Search)
	}
	for name := range c.CommandFiles {
		if _, inline := c.Commands[name]; inline {
			return fmt.Errorf("command %q given both inline and as a file", name)
		}
	}
	switch c.Report.Format {
	case ReportText, ReportJSON, ReportYAML:
	default:
		return fmt.Errorf("report.format: unknown format %q", c.Report.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Inventory: %s (%s), end devices: %s\n",
		orNone(c.Inventory.Switches), c.Inventory.Format, orNone(c.Inventory.EndDevices))
	summary += fmt.Sprintf("Search: %s, concurrency: %s, connect timeout: %s, command timeout: %s\n",
		c.Fleet.Search, concurrency(c.Fleet.MaxConcurrent),
		c.Session.ConnectTimeout.Duration(), c.Session.CommandTimeout.Duration())
	summary += fmt.Sprintf("Preflight: %t, report: %s", c.Preflight.Enabled, c.Report.Format)
	return summary
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func concurrency(n int) string {
	if n == 0 {
		return "unbounded"
	}
	return fmt.Sprintf("%d", n)
}
