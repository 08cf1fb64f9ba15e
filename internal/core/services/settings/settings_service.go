package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// SettingsService manages the backend capture configuration: interface
// selection, protocol-port rules and capture filters. Every successful read
// or write updates a local snapshot so the last known configuration can be
// shown while the backend is unreachable.
type SettingsService struct {
	api    ports.ConfigAPI
	cache  ports.SettingsCache
	logger *slog.Logger

	mu   sync.Mutex
	snap ports.SettingsSnapshot
	now  func() time.Time
}

// NewSettingsService creates the service. cache may be nil.
func NewSettingsService(api ports.ConfigAPI, cache ports.SettingsCache) *SettingsService {
	return &SettingsService{
		api:    api,
		cache:  cache,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// SetLogger replaces the default logger.
func (s *SettingsService) SetLogger(l *slog.Logger) {
	s.logger = l
}

// --- Interfaces ---

func (s *SettingsService) Interfaces(ctx context.Context) (domain.NetworkInterfaces, error) {
	ifaces, err := s.api.Interfaces(ctx)
	if err != nil {
		return domain.NetworkInterfaces{}, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Interfaces = ifaces })
	return ifaces, nil
}

// SelectInterface switches the capture interface. When the offered list is
// known locally the name must be on it.
func (s *SettingsService) SelectInterface(ctx context.Context, name string) (string, error) {
	sel := domain.InterfaceSelection{Interface: name}
	if err := sel.Validate(); err != nil {
		return "", fmt.Errorf("%w: %q", err, name)
	}

	s.mu.Lock()
	known := s.snap.Interfaces
	s.mu.Unlock()
	if len(known.Interfaces) > 0 && !known.Has(name) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownInterface, name)
	}

	selected, err := s.api.SelectInterface(ctx, name)
	if err != nil {
		return "", err
	}
	if selected == "" {
		selected = name
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Interfaces.Selected = selected })
	s.logger.Info("Capture interface selected", "interface", selected)
	return selected, nil
}

// --- Protocol-port rules ---

func (s *SettingsService) Rules(ctx context.Context) (domain.RuleSet, error) {
	rules, err := s.api.Rules(ctx)
	if err != nil {
		return domain.RuleSet{}, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Rules = rules })
	return rules, nil
}

// SaveRule adds the rule or replaces the one for the same protocol.
func (s *SettingsService) SaveRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error) {
	rule = rule.Normalize()
	if err := rule.Validate(); err != nil {
		return domain.RuleSet{}, err
	}
	rules, err := s.api.SaveRule(ctx, rule)
	if err != nil {
		return domain.RuleSet{}, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Rules = rules })
	return rules, nil
}

// DeleteRule removes the rule for a protocol.
func (s *SettingsService) DeleteRule(ctx context.Context, protocol string) (domain.RuleSet, error) {
	rule := domain.ProtocolPortRule{Protocol: protocol}.Normalize()
	if rule.Protocol == "" {
		return domain.RuleSet{}, domain.ErrEmptyRuleProtocol
	}
	rules, err := s.api.DeleteRule(ctx, rule)
	if err != nil {
		return domain.RuleSet{}, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Rules = rules })
	return rules, nil
}

// --- Capture filters ---

func (s *SettingsService) Filters(ctx context.Context) ([]domain.CaptureFilter, error) {
	filters, err := s.api.Filters(ctx)
	if err != nil {
		return nil, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Filters = filters })
	return filters, nil
}

// ReplaceFilters sends the whole list, which replaces the backend's.
func (s *SettingsService) ReplaceFilters(ctx context.Context, filters []domain.CaptureFilter) ([]domain.CaptureFilter, error) {
	if err := domain.ValidateFilters(filters); err != nil {
		return nil, err
	}
	saved, err := s.api.SaveFilters(ctx, filters)
	if err != nil {
		return nil, err
	}
	s.update(ctx, func(snap *ports.SettingsSnapshot) { snap.Filters = saved })
	s.logger.Info("Capture filters updated", "count", len(saved), "bpf", domain.BuildBPF(saved))
	return saved, nil
}

// AddFilter appends one filter to the current list.
func (s *SettingsService) AddFilter(ctx context.Context, f domain.CaptureFilter) ([]domain.CaptureFilter, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	current, err := s.Filters(ctx)
	if err != nil {
		return nil, err
	}
	return s.ReplaceFilters(ctx, append(current, f))
}

// RemoveFilter drops the filter at index from the current list.
func (s *SettingsService) RemoveFilter(ctx context.Context, index int) ([]domain.CaptureFilter, error) {
	current, err := s.Filters(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(current) {
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrFilterIndex, index, len(current))
	}
	next := append(current[:index:index], current[index+1:]...)
	return s.ReplaceFilters(ctx, next)
}

// Preview renders filters as the BPF expression the capture would use.
func (s *SettingsService) Preview(filters []domain.CaptureFilter) string {
	return domain.BuildBPF(filters)
}

// --- Snapshot ---

// Cached returns the last configuration seen, from memory or the local cache.
func (s *SettingsService) Cached(ctx context.Context) (ports.SettingsSnapshot, bool, error) {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()
	if !snap.UpdatedAt.IsZero() {
		return snap, true, nil
	}
	if s.cache == nil {
		return ports.SettingsSnapshot{}, false, nil
	}
	return s.cache.LoadSnapshot(ctx)
}

// update applies fn to the snapshot and writes it through to the cache.
// Cache failures are logged, the backend answer already succeeded.
func (s *SettingsService) update(ctx context.Context, fn func(*ports.SettingsSnapshot)) {
	s.mu.Lock()
	if s.snap.UpdatedAt.IsZero() && s.cache != nil {
		if prev, ok, err := s.cache.LoadSnapshot(ctx); err == nil && ok {
			s.snap = prev
		}
	}
	fn(&s.snap)
	s.snap.UpdatedAt = s.now().UTC()
	snap := s.snap
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Warn("Failed to cache settings snapshot", "error", err)
	}
}
