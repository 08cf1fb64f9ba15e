package storage

import (
	"encoding/json"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// toSnapshotModel converts a settings snapshot to its database row.
func toSnapshotModel(s ports.SettingsSnapshot) (SettingsSnapshotModel, error) {
	ifaces, err := json.Marshal(s.Interfaces)
	if err != nil {
		return SettingsSnapshotModel{}, err
	}
	rules, err := json.Marshal(s.Rules)
	if err != nil {
		return SettingsSnapshotModel{}, err
	}
	filters := s.Filters
	if filters == nil {
		filters = []domain.CaptureFilter{}
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return SettingsSnapshotModel{}, err
	}

	updated := s.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	return SettingsSnapshotModel{
		Interfaces: string(ifaces),
		Rules:      string(rules),
		Filters:    string(filtersJSON),
		UpdatedAt:  updated.UTC(),
	}, nil
}

// toSnapshot converts a database row back to a settings snapshot.
func toSnapshot(m SettingsSnapshotModel) (ports.SettingsSnapshot, error) {
	snap := ports.SettingsSnapshot{UpdatedAt: m.UpdatedAt}

	if m.Interfaces != "" {
		if err := json.Unmarshal([]byte(m.Interfaces), &snap.Interfaces); err != nil {
			return snap, err
		}
	}
	if m.Rules != "" {
		if err := json.Unmarshal([]byte(m.Rules), &snap.Rules); err != nil {
			return snap, err
		}
	}
	if m.Filters != "" {
		if err := json.Unmarshal([]byte(m.Filters), &snap.Filters); err != nil {
			return snap, err
		}
	}
	return snap, nil
}
