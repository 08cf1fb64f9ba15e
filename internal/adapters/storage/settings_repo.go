package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"gorm.io/gorm"
)

// Ensure compliance
var _ ports.SettingsCache = (*SQLiteAdapter)(nil)

const snapshotID = 1

// SaveSnapshot replaces the cached settings. Every save gets a fresh revision.
func (a *SQLiteAdapter) SaveSnapshot(ctx context.Context, snap ports.SettingsSnapshot) error {
	model, err := toSnapshotModel(snap)
	if err != nil {
		return err
	}
	model.ID = snapshotID
	model.Revision = uuid.NewString()
	return a.db.WithContext(ctx).Save(&model).Error
}

// LoadSnapshot returns the cached settings.
func (a *SQLiteAdapter) LoadSnapshot(ctx context.Context) (ports.SettingsSnapshot, bool, error) {
	var model SettingsSnapshotModel
	if err := a.db.WithContext(ctx).First(&model, snapshotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SettingsSnapshot{}, false, nil
		}
		return ports.SettingsSnapshot{}, false, err
	}

	snap, err := toSnapshot(model)
	if err != nil {
		return ports.SettingsSnapshot{}, false, fmt.Errorf("decode snapshot %s: %w", model.Revision, err)
	}
	return snap, true, nil
}
