package mockbackend

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

var ErrRuleNotFound = errors.New("rule not found")

// ConfigState is the mutable capture configuration of the mock host.
type ConfigState struct {
	mu         sync.RWMutex
	interfaces []string
	selected   string
	rules      []domain.ProtocolPortRule
	filters    []domain.CaptureFilter

	running   bool
	startedAt time.Time
}

// NewConfigState starts with the first interface selected.
func NewConfigState(interfaces []string, rules []domain.ProtocolPortRule) *ConfigState {
	s := &ConfigState{
		interfaces: append([]string(nil), interfaces...),
		rules:      append([]domain.ProtocolPortRule(nil), rules...),
		filters:    []domain.CaptureFilter{},
	}
	if len(interfaces) > 0 {
		s.selected = interfaces[0]
	}
	return s
}

func (s *ConfigState) Interfaces() domain.NetworkInterfaces {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.NetworkInterfaces{
		Interfaces: append([]string{}, s.interfaces...),
		Selected:   s.selected,
	}
}

// SelectInterface switches the capture interface. Unknown names are refused.
func (s *ConfigState) SelectInterface(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iface := range s.interfaces {
		if iface == name {
			s.selected = name
			return nil
		}
	}
	return domain.ErrUnknownInterface
}

func (s *ConfigState) Rules() domain.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := make([]domain.ProtocolPortRule, len(s.rules))
	copy(rules, s.rules)
	return domain.RuleSet{Rules: rules}
}

// UpsertRule adds the rule or replaces the one for the same protocol.
func (s *ConfigState) UpsertRule(rule domain.ProtocolPortRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rule = rule.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if strings.EqualFold(r.Protocol, rule.Protocol) {
			s.rules[i] = rule
			return nil
		}
	}
	s.rules = append(s.rules, rule)
	sort.Slice(s.rules, func(i, j int) bool { return s.rules[i].Protocol < s.rules[j].Protocol })
	return nil
}

// RemoveRule deletes the rule for rule.Protocol.
func (s *ConfigState) RemoveRule(rule domain.ProtocolPortRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if strings.EqualFold(r.Protocol, rule.Protocol) {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

func (s *ConfigState) Filters() []domain.CaptureFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CaptureFilter{}, s.filters...)
}

// SetFilters replaces every filter.
func (s *ConfigState) SetFilters(filters []domain.CaptureFilter) error {
	if err := domain.ValidateFilters(filters); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append([]domain.CaptureFilter{}, filters...)
	return nil
}

// StartCapture reports whether the capture was stopped before.
func (s *ConfigState) StartCapture(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running, s.startedAt = true, now
	return true
}

// StopCapture reports whether the capture was running before.
func (s *ConfigState) StopCapture() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	return true
}

func (s *ConfigState) Capture(now time.Time) domain.CaptureStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := domain.CaptureStatus{
		Running: s.running,
		Metrics: map[string]any{
			"interface": s.selected,
			"filter":    domain.BuildBPF(s.filters),
		},
	}
	if s.running {
		st.Metrics["uptime_seconds"] = int(now.Sub(s.startedAt).Seconds())
	}
	return st
}
