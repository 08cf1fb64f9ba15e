package domain

import (
	"net/netip"
	"regexp"
	"strings"
)

// Validation Helpers

var interfaceRegex = regexp.MustCompile(`^[a-zA-Z0-9.\-_]+$`)

// IsValidInterface checks if the string is a safe interface name (alphanumeric + . - _)
func IsValidInterface(iface string) bool {
	// IFNAMSIZ is 16 including the terminator
	if len(iface) == 0 || len(iface) > 15 {
		return false
	}
	return interfaceRegex.MatchString(iface)
}

// IsValidPort checks the TCP/UDP port range accepted by capture rules.
func IsValidPort(port int) bool {
	return port >= 1 && port <= 65535
}

// IsValidIP checks for a single IPv4 or IPv6 address.
func IsValidIP(s string) bool {
	_, err := netip.ParseAddr(strings.TrimSpace(s))
	return err == nil
}

// IsCIDR checks for a network prefix such as 10.0.0.0/8.
func IsCIDR(s string) bool {
	_, err := netip.ParsePrefix(strings.TrimSpace(s))
	return err == nil
}

// IsValidIPOrCIDR accepts either an address or a prefix.
func IsValidIPOrCIDR(s string) bool {
	return IsValidIP(s) || IsCIDR(s)
}
