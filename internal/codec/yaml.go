package codec

import (
	"fmt"
	"io"

	"macfinder/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles the native switch_list inventory
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a switch_list document
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Inventory, error) {
	var l switchList
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&l); err != nil {
		if err == io.EOF {
			return domain.NewInventory(), nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return l.toInventory(), nil
}

// Export writes inv as a switch_list document without passwords
func (c *YAMLCodec) Export(inv *domain.Inventory, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(fromInventory(inv)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
