package adapter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"macfinder/internal/domain"
)

// Command names understood by the prober
const (
	CommandForwardingLookup = "forwarding_lookup"
	CommandSwitchportStatus = "switchport_status"
)

// DefaultCommandTemplates is the IOS command set
var DefaultCommandTemplates = map[string]string{
	CommandForwardingLookup: "show mac address-table | include {{ .mac }}",
	CommandSwitchportStatus: "show interfaces {{ .port }} switchport",
}

// CommandRenderer turns a command name and parameters into the text sent to a switch
type CommandRenderer interface {
	Render(name string, params map[string]any) (string, error)
}

// TemplateRenderer renders commands from text/template sources with sprig functions
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses sources over DefaultCommandTemplates.
// Sources only need to name the commands they override.
func NewTemplateRenderer(sources map[string]string) (*TemplateRenderer, error) {
	merged := make(map[string]string, len(DefaultCommandTemplates))
	for name, src := range DefaultCommandTemplates {
		merged[name] = src
	}
	for name, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		merged[name] = src
	}

	r := &TemplateRenderer{templates: make(map[string]*template.Template, len(merged))}
	for name, src := range merged {
		tmpl, err := template.New(name).
			Funcs(sprig.TxtFuncMap()).
			Option("missingkey=error").
			Parse(src)
		if err != nil {
			return nil, domain.NewError(domain.KindConfiguration, "parse command template", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// LoadCommandFiles reads template sources from files keyed by command name
func LoadCommandFiles(paths map[string]string) (map[string]string, error) {
	sources := make(map[string]string, len(paths))
	for name, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.NewError(domain.KindConfiguration, "read command template", path, err)
		}
		sources[name] = string(data)
	}
	return sources, nil
}

// Render executes the named template. The result must be a single line.
func (r *TemplateRenderer) Render(name string, params map[string]any) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown command %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}

	cmd := strings.TrimSpace(buf.String())
	if cmd == "" {
		return "", fmt.Errorf("render %s: empty command", name)
	}
	if strings.ContainsAny(cmd, "\r\n") {
		return "", fmt.Errorf("render %s: command spans multiple lines", name)
	}
	return cmd, nil
}

// MACParams returns the template parameters for a MAC lookup
func MACParams(q domain.MacQuery) map[string]any {
	return map[string]any{
		"mac":       q.Cisco(),
		"mac_raw":   q.MAC,
		"mac_colon": domain.ColonMAC(q.MAC),
	}
}

// PortParams returns the template parameters for a switchport query
func PortParams(port string) map[string]any {
	return map[string]any{
		"port": port,
	}
}
