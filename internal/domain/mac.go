package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// macLayout matches one MAC written with a single, consistent separator layout
var macLayout = regexp.MustCompile(`^(?:` +
	`[0-9a-f]{2}(?::[0-9a-f]{2}){5}|` +
	`[0-9a-f]{2}(?:-[0-9a-f]{2}){5}|` +
	`[0-9a-f]{4}(?:\.[0-9a-f]{4}){2}|` +
	`[0-9a-f]{12})$`)

// NormalizeMAC strips separators from a MAC address and lowercases it.
// Accepted inputs: aa:bb:cc:dd:ee:ff, aa-bb-cc-dd-ee-ff, aabb.ccdd.eeff, aabbccddeeff
func NormalizeMAC(mac string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(mac))
	if !macLayout.MatchString(s) {
		return "", fmt.Errorf("invalid MAC address %q", mac)
	}
	return strings.NewReplacer(":", "", "-", "", ".", "").Replace(s), nil
}

// SameMAC reports whether a and b are the same address in any accepted format
func SameMAC(a, b string) bool {
	na, err := NormalizeMAC(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeMAC(b)
	if err != nil {
		return false
	}
	return na == nb
}

// CiscoMAC renders a MAC as aabb.ccdd.eeff. Invalid input is returned unchanged.
func CiscoMAC(mac string) string {
	s, err := NormalizeMAC(mac)
	if err != nil {
		return mac
	}
	return s[0:4] + "." + s[4:8] + "." + s[8:12]
}

// ColonMAC renders a MAC as aa:bb:cc:dd:ee:ff. Invalid input is returned unchanged.
func ColonMAC(mac string) string {
	s, err := NormalizeMAC(mac)
	if err != nil {
		return mac
	}
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, s[i:i+2])
	}
	return strings.Join(parts, ":")
}
