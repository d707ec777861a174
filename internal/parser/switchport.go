package parser

import (
	"strings"

	"macfinder/internal/domain"
)

// OperationalModeLabel marks the line holding the switchport mode
const OperationalModeLabel = "Operational Mode"

// SwitchportMode extracts the operational mode from
// "show interfaces <port> switchport" output, e.g.
//
//	Operational Mode: static access
//
// It returns false when no line carries the label (not a switchport, or the
// interface does not exist).
func SwitchportMode(text string) (domain.SwitchportStatus, bool) {
	for _, line := range splitLines(text) {
		if !strings.Contains(line, OperationalModeLabel) {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			return domain.SwitchportStatus{}, false
		}
		return domain.SwitchportStatus{OperationalMode: strings.TrimSpace(value)}, true
	}
	return domain.SwitchportStatus{}, false
}
