// Package cli defines the macfinder command-line options
package cli

import (
	"time"

	"github.com/jessevdk/go-flags"

	"macfinder/internal/config"
)

// Default inventory files, read from the working directory when neither
// the config file nor a flag names them
const (
	DefaultSwitchesFile   = "switches.yml"
	DefaultEndDevicesFile = "end_devices.yml"
)

// Options defines command line options. Zero values leave the config file
// setting in place.
type Options struct {
	Config string `short:"c" long:"config" description:"config file (default: $MACFINDER_CONFIG, ./macfinder.yaml, ~/.config/macfinder/config.yaml)"`

	Switches        string `short:"s" long:"switches" description:"switch inventory file"`
	InventoryFormat string `long:"inventory-format" choice:"native" choice:"json" choice:"ansible" description:"switch inventory format"`
	Group           string `short:"g" long:"group" description:"Ansible group to search"`
	EndDevices      string `short:"e" long:"end-devices" description:"end device list file"`

	Search         string        `long:"search" choice:"exhaustive" choice:"first_match" description:"keep searching after a match, or stop at the first access port"`
	MaxConcurrent  int           `short:"j" long:"max-concurrent" description:"simultaneous switch sessions (0 = one per switch)"`
	ConnectTimeout time.Duration `long:"connect-timeout" description:"SSH connect and login timeout"`
	CommandTimeout time.Duration `long:"command-timeout" description:"per-command timeout"`
	KnownHosts     string        `long:"known-hosts" description:"known_hosts file for host key checking"`
	Preflight      bool          `long:"preflight" description:"nmap the SSH port of every switch before connecting"`

	Username        string `short:"u" long:"username" description:"shared login username; the password is prompted"`
	CredentialStore string `long:"credential-store" description:"sqlite credential store"`
	EnvFile         string `long:"env-file" description:"dotenv file with MACFINDER_USERNAME and MACFINDER_PASSWORD"`
	NoPrompt        bool   `long:"no-prompt" description:"never prompt for a password"`

	AddCredential    string `long:"add-credential" value-name:"NAME" description:"store a named login in the credential store and exit"`
	DeleteCredential string `long:"delete-credential" value-name:"NAME" description:"remove a named login from the credential store and exit"`
	ListCredentials  bool   `long:"list-credentials" description:"list stored logins and exit"`

	Format         string `short:"o" long:"format" choice:"text" choice:"json" choice:"yaml" description:"report format"`
	Verbose        bool   `short:"v" long:"verbose" description:"report every switch and MAC pair"`
	Debug          bool   `short:"d" long:"debug" description:"debug logging"`
	PrintInventory bool   `long:"print-inventory" description:"print the parsed switch inventory without passwords and exit"`

	Args struct {
		MACs []string `positional-arg-name:"MAC" description:"MAC addresses to search for, in addition to the end device list"`
	} `positional-args:"yes"`

	set map[string]bool
}

// Parse returns parsed command-line flags in Options struct
func Parse(args []string) (*Options, error) {
	opt := &Options{}
	parser := flags.NewParser(opt, flags.Default)
	parser.Name = "macfinder"
	parser.Usage = "[OPTIONS] [MAC...]"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	opt.set = make(map[string]bool)
	for _, name := range []string{"max-concurrent"} {
		if o := parser.FindOptionByLongName(name); o != nil && o.IsSet() {
			opt.set[name] = true
		}
	}
	return opt, nil
}

// IsHelp reports whether err is the help request rather than a failure
func IsHelp(err error) bool {
	return flags.WroteHelp(err)
}

// CredentialAction reports whether a credential store command was given
func (o *Options) CredentialAction() bool {
	return o.AddCredential != "" || o.DeleteCredential != "" || o.ListCredentials
}

// Apply overrides cfg with every option given on the command line, then
// fills the inventory file defaults
func (o *Options) Apply(cfg *config.Config) {
	setString(&cfg.Inventory.Switches, o.Switches)
	setString(&cfg.Inventory.Format, o.InventoryFormat)
	setString(&cfg.Inventory.Group, o.Group)
	setString(&cfg.Inventory.EndDevices, o.EndDevices)

	setString(&cfg.Fleet.Search, o.Search)
	if o.set["max-concurrent"] {
		cfg.Fleet.MaxConcurrent = o.MaxConcurrent
	}
	if o.ConnectTimeout > 0 {
		cfg.Session.ConnectTimeout = config.Duration(o.ConnectTimeout)
	}
	if o.CommandTimeout > 0 {
		cfg.Session.CommandTimeout = config.Duration(o.CommandTimeout)
	}
	setString(&cfg.Session.KnownHosts, o.KnownHosts)
	if o.Preflight {
		cfg.Preflight.Enabled = true
	}

	setString(&cfg.Credentials.Username, o.Username)
	setString(&cfg.Credentials.Store, o.CredentialStore)
	setString(&cfg.Credentials.EnvFile, o.EnvFile)
	if o.NoPrompt {
		prompt := false
		cfg.Credentials.Prompt = &prompt
	}

	setString(&cfg.Report.Format, o.Format)
	if o.Verbose {
		cfg.Report.Verbose = true
	}
	if o.Debug {
		cfg.Logging.Level = "debug"
	}

	if cfg.Inventory.Switches == "" {
		cfg.Inventory.Switches = DefaultSwitchesFile
	}
	if cfg.Inventory.EndDevices == "" && len(o.Args.MACs) == 0 {
		cfg.Inventory.EndDevices = DefaultEndDevicesFile
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
