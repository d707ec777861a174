package parser

import (
	"strconv"
	"strings"

	"macfinder/internal/domain"
)

const (
	minVLAN = 1
	maxVLAN = 4094
)

// ForwardingTable finds targetMAC in "show mac address-table" output.
//
// Data lines have exactly four whitespace-separated fields in the order
// vlan, mac, type, port:
//
//	  10    aabb.ccdd.eeff    DYNAMIC     Gi1/0/1
//
// Any other line is skipped. The MAC column must equal targetMAC after
// normalization; the first matching line wins.
func ForwardingTable(text, targetMAC string) (domain.ForwardingEntry, bool) {
	target, err := domain.NormalizeMAC(targetMAC)
	if err != nil {
		return domain.ForwardingEntry{}, false
	}

	for _, line := range splitLines(text) {
		entry, ok := parseForwardingLine(line)
		if !ok {
			continue
		}
		mac, err := domain.NormalizeMAC(entry.MAC)
		if err != nil || mac != target {
			continue
		}
		return entry, true
	}

	return domain.ForwardingEntry{}, false
}

func parseForwardingLine(line string) (domain.ForwardingEntry, bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return domain.ForwardingEntry{}, false
	}

	vlan, err := strconv.Atoi(fields[0])
	if err != nil || vlan < minVLAN || vlan > maxVLAN {
		return domain.ForwardingEntry{}, false
	}
	if _, err := domain.NormalizeMAC(fields[1]); err != nil {
		return domain.ForwardingEntry{}, false
	}

	return domain.ForwardingEntry{
		VLAN:    vlan,
		MAC:     fields[1],
		Type:    domain.ParseEntryType(fields[2]),
		RawType: fields[2],
		Port:    fields[3],
	}, true
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}
