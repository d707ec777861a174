package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version      int                `yaml:"version"`
	Inventory    InventoryConfig    `yaml:"inventory"`
	Session      SessionConfig      `yaml:"session"`
	Fleet        FleetConfig        `yaml:"fleet"`
	Commands     map[string]string  `yaml:"commands,omitempty"`      // inline templates by command name
	CommandFiles map[string]string  `yaml:"command_files,omitempty"` // template files by command name
	Credentials  CredentialsConfig  `yaml:"credentials"`
	Preflight    PreflightConfig    `yaml:"preflight"`
	Report       ReportConfig       `yaml:"report"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// Inventory formats
const (
	InventoryFormatNative  = "native"
	InventoryFormatJSON    = "json"
	InventoryFormatAnsible = "ansible"
)

// InventoryConfig points at the switch and end-device lists
type InventoryConfig struct {
	Switches   string `yaml:"switches"`    // switch_list YAML or Ansible inventory
	Format     string `yaml:"format"`      // native, json, ansible
	Group      string `yaml:"group"`       // Ansible group to import; empty = all hosts
	EndDevices string `yaml:"end_devices"` // end_devices YAML
}

// SessionConfig holds SSH session settings
type SessionConfig struct {
	ConnectTimeout Duration `yaml:"connect_timeout"`
	CommandTimeout Duration `yaml:"command_timeout"`
	SetupCommands  []string `yaml:"setup_commands,omitempty"`
	KnownHosts     string   `yaml:"known_hosts,omitempty"` // empty disables host key checking
	TerminalWidth  int      `yaml:"terminal_width"`
}

// FleetConfig holds fleet-wide search settings
type FleetConfig struct {
	MaxConcurrent int    `yaml:"max_concurrent"` // 0 = one session per switch
	Search        string `yaml:"search"`         // exhaustive, first_match
}

// CredentialsConfig describes where switch logins come from
type CredentialsConfig struct {
	Store    string `yaml:"store,omitempty"`    // sqlite credential store path
	EnvFile  string `yaml:"env_file,omitempty"` // dotenv file with MACFINDER_USERNAME / MACFINDER_PASSWORD
	Username string `yaml:"username,omitempty"` // shared username; password is prompted
	Prompt   *bool  `yaml:"prompt,omitempty"`   // nil = prompt when nothing else answers
}

// PromptEnabled reports whether an interactive prompt may be used
func (c CredentialsConfig) PromptEnabled() bool {
	return c.Prompt == nil || *c.Prompt
}

// PreflightConfig controls the nmap reachability check
type PreflightConfig struct {
	Enabled bool     `yaml:"enabled"`
	Timeout Duration `yaml:"timeout"`
}

// Report formats
const (
	ReportText = "text"
	ReportJSON = "json"
	ReportYAML = "yaml"
)

// ReportConfig controls result presentation
type ReportConfig struct {
	Format string `yaml:"format"` // text, json, yaml
	// Verbose lists every pair, not only located MACs and failures
	Verbose bool `yaml:"verbose"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
