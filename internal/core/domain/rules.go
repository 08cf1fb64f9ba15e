package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain Errors for protocol mapping rules
var (
	ErrEmptyRuleProtocol = errors.New("rule protocol cannot be empty")
	ErrEmptyRulePorts    = errors.New("rule needs at least one port")
)

// ProtocolPortRule maps a protocol name to the ports that classify traffic as it.
type ProtocolPortRule struct {
	Protocol string `json:"protocol"`
	Ports    []int  `json:"ports"`
}

// Validate performs internal consistency checks on the rule.
func (r *ProtocolPortRule) Validate() error {
	if strings.TrimSpace(r.Protocol) == "" {
		return ErrEmptyRuleProtocol
	}
	if len(r.Ports) == 0 {
		return ErrEmptyRulePorts
	}
	for _, p := range r.Ports {
		if !IsValidPort(p) {
			return fmt.Errorf("%w: %d", ErrInvalidPort, p)
		}
	}
	return nil
}

// Normalize lowercases the protocol and sorts and dedups the ports.
func (r ProtocolPortRule) Normalize() ProtocolPortRule {
	seen := make(map[int]struct{}, len(r.Ports))
	ports := make([]int, 0, len(r.Ports))
	for _, p := range r.Ports {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		ports = append(ports, p)
	}
	sort.Ints(ports)
	return ProtocolPortRule{
		Protocol: strings.ToLower(strings.TrimSpace(r.Protocol)),
		Ports:    ports,
	}
}

// RuleSet is the full mapping as the backend returns it.
type RuleSet struct {
	Rules []ProtocolPortRule `json:"rules"`
}

// Find returns the rule for a protocol, case-insensitively.
func (s RuleSet) Find(protocol string) (ProtocolPortRule, bool) {
	for _, r := range s.Rules {
		if strings.EqualFold(r.Protocol, protocol) {
			return r, true
		}
	}
	return ProtocolPortRule{}, false
}

// ProtocolForPort returns the protocol whose rule lists the port.
func (s RuleSet) ProtocolForPort(port int) (string, bool) {
	for _, r := range s.Rules {
		for _, p := range r.Ports {
			if p == port {
				return r.Protocol, true
			}
		}
	}
	return "", false
}
