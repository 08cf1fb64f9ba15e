package storage

import (
	"context"
	"errors"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ensure interface compliance
var _ ports.SessionStore = (*SQLiteAdapter)(nil)

// Load retrieves a value by key.
func (a *SQLiteAdapter) Load(ctx context.Context, key string) (string, bool, error) {
	var entry KVEntry
	if err := a.db.WithContext(ctx).First(&entry, "name = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

// Store creates or replaces a value.
func (a *SQLiteAdapter) Store(ctx context.Context, key, value string) error {
	entry := KVEntry{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Remove deletes a key. Removing a missing key is not an error.
func (a *SQLiteAdapter) Remove(ctx context.Context, key string) error {
	return a.db.WithContext(ctx).Delete(&KVEntry{}, "name = ?", key).Error
}
