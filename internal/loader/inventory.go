// Package loader reads the switch inventory and end-device list from disk
package loader

import (
	"fmt"
	"os"
	"strings"

	"macfinder/internal/codec"
	"macfinder/internal/domain"

	"gopkg.in/yaml.v3"
)

// Inventory formats understood by LoadSwitches
const (
	FormatNative  = "native"
	FormatJSON    = "json"
	FormatAnsible = "ansible"
)

// importerFor picks the codec for an inventory format
func importerFor(format, group string) (codec.Importer, error) {
	switch format {
	case "", FormatNative:
		return codec.NewYAMLCodec(), nil
	case FormatJSON:
		return codec.NewJSONCodec(), nil
	case FormatAnsible:
		return codec.NewAnsibleCodec(group), nil
	}
	return nil, fmt.Errorf("unknown inventory format %q", format)
}

// LoadSwitches reads and validates the switch inventory at path
func LoadSwitches(path, format, group string) (*domain.Inventory, error) {
	importer, err := importerFor(format, group)
	if err != nil {
		return nil, domain.ConfigError(path, "%v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ConfigError(path, "failed to read inventory: %v", err)
	}
	defer f.Close()

	inv, err := importer.Parse(f)
	if err != nil {
		return nil, domain.ConfigError(path, "%v", err)
	}
	if err := inv.Validate(); err != nil {
		return nil, domain.ConfigError(path, "%v", err)
	}
	return inv, nil
}

// endDevicesYAML is the end_devices document. Entries carry the MAC under
// "MAC" (the classic layout) or "mac".
type endDevicesYAML struct {
	EndDevices []endDeviceYAML `yaml:"end_devices"`
}

type endDeviceYAML struct {
	MAC      string `yaml:"MAC"`
	MACLower string `yaml:"mac"`
	Name     string `yaml:"name"`
}

func (d endDeviceYAML) mac() string {
	if d.MAC != "" {
		return d.MAC
	}
	return d.MACLower
}

// LoadEndDevices reads the end_devices list at path
func LoadEndDevices(path string) ([]domain.MacQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ConfigError(path, "failed to read end devices: %v", err)
	}
	return ParseEndDevices(path, data)
}

// ParseEndDevices parses an end_devices document; source names it in errors
func ParseEndDevices(source string, data []byte) ([]domain.MacQuery, error) {
	var doc endDevicesYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, domain.ConfigError(source, "failed to parse YAML: %v", err)
	}

	queries := make([]domain.MacQuery, 0, len(doc.EndDevices))
	seen := make(map[string]int, len(doc.EndDevices))
	for i, d := range doc.EndDevices {
		q, err := domain.NewMacQuery(d.mac(), d.Name)
		if err != nil {
			return nil, domain.ConfigError(source, "entry %d: %v", i+1, err)
		}
		if first, dup := seen[q.MAC]; dup {
			return nil, domain.ConfigError(source, "entry %d: duplicate MAC %s (first seen in entry %d)", i+1, q.Cisco(), first)
		}
		seen[q.MAC] = i + 1
		queries = append(queries, q)
	}
	return queries, nil
}

// MACsFromArgs turns command-line MACs into queries. Arguments may be
// comma separated.
func MACsFromArgs(args []string) ([]domain.MacQuery, error) {
	var queries []domain.MacQuery
	seen := make(map[string]bool)
	for _, arg := range args {
		for _, raw := range strings.Split(arg, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			q, err := domain.NewMacQuery(raw, "")
			if err != nil {
				return nil, domain.ConfigError("arguments", "%v", err)
			}
			if seen[q.MAC] {
				continue
			}
			seen[q.MAC] = true
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// MergeQueries appends extra to base, dropping MACs base already has
func MergeQueries(base, extra []domain.MacQuery) []domain.MacQuery {
	seen := make(map[string]bool, len(base))
	for _, q := range base {
		seen[q.MAC] = true
	}
	merged := append([]domain.MacQuery(nil), base...)
	for _, q := range extra {
		if !seen[q.MAC] {
			seen[q.MAC] = true
			merged = append(merged, q)
		}
	}
	return merged
}
