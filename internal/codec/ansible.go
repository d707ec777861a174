package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"macfinder/internal/domain"

	"gopkg.in/yaml.v3"
)

// AnsibleCodec imports switches from an Ansible YAML inventory
type AnsibleCodec struct {
	// group limits the import to hosts under one group (any depth); empty = all
	group string
}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec(group string) *AnsibleCodec {
	return &AnsibleCodec{group: group}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroup           `yaml:"children,omitempty"`
	Hosts    map[string]map[string]interface{} `yaml:"hosts,omitempty"`
	Vars     map[string]interface{}            `yaml:"vars,omitempty"`
}

// Parse imports switches from an Ansible inventory. Connection variables
// (ansible_host, ansible_port, ansible_network_os, ansible_user,
// ansible_password) are inherited from enclosing groups; host vars win.
func (c *AnsibleCodec) Parse(r io.Reader) (*domain.Inventory, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	hosts := make(map[string]map[string]interface{})
	c.collect("all", inv.All, nil, c.group == "" || c.group == "all", hosts)

	if c.group != "" && c.group != "all" && len(hosts) == 0 {
		return nil, fmt.Errorf("group %q has no hosts", c.group)
	}

	names := make([]string, 0, len(hosts))
	for name := range hosts {
		names = append(names, name)
	}
	sort.Strings(names)

	result := domain.NewInventory()
	for _, name := range names {
		target, username, password, err := c.hostToTarget(name, hosts[name])
		if err != nil {
			return nil, err
		}
		result.AddSwitch(target, username, password)
	}

	return result, nil
}

// collect walks the group tree, merging vars down into each selected host
func (c *AnsibleCodec) collect(name string, group ansibleGroup, inherited map[string]interface{}, selected bool, out map[string]map[string]interface{}) {
	vars := mergeVars(inherited, group.Vars)
	if name == c.group {
		selected = true
	}

	if selected {
		for host, hostVars := range group.Hosts {
			merged := mergeVars(vars, out[host])
			out[host] = mergeVars(merged, hostVars)
		}
	}

	for childName, child := range group.Children {
		c.collect(childName, child, vars, selected, out)
	}
}

func mergeVars(base, overlay map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// hostToTarget converts an Ansible host to a switch target
func (c *AnsibleCodec) hostToTarget(name string, vars map[string]interface{}) (domain.SwitchTarget, string, string, error) {
	target := domain.SwitchTarget{
		Name:          name,
		Address:       stringVar(vars, "ansible_host"),
		Platform:      platformFromNetworkOS(stringVar(vars, "ansible_network_os")),
		CredentialRef: stringVar(vars, "macfinder_credential"),
	}
	if target.Address == "" {
		target.Address = name
	}

	if port := stringVar(vars, "ansible_port"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return target, "", "", fmt.Errorf("host %s: invalid ansible_port %q", name, port)
		}
		target.Port = p
	}

	username := stringVar(vars, "ansible_user")
	password := stringVar(vars, "ansible_password")
	if password == "" {
		password = stringVar(vars, "ansible_ssh_pass")
	}

	return target, username, password, nil
}

func stringVar(vars map[string]interface{}, key string) string {
	v, ok := vars[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// platformFromNetworkOS maps ansible_network_os values (ios, cisco.ios.ios)
// onto platform names
func platformFromNetworkOS(os string) string {
	if os == "" {
		return domain.DefaultPlatform
	}
	parts := strings.Split(strings.ToLower(os), ".")
	short := parts[len(parts)-1]
	switch short {
	case "ios":
		return "cisco_ios"
	case "iosxe":
		return "cisco_xe"
	case "nxos":
		return "cisco_nxos"
	}
	return short
}
