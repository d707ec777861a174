package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"macfinder/internal/domain"
)

// JSONCodec handles the native inventory layout written as JSON
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a switch_list document from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Inventory, error) {
	var l switchList
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return l.toInventory(), nil
}

// Export writes inv as JSON without passwords
func (c *JSONCodec) Export(inv *domain.Inventory, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(fromInventory(inv)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
