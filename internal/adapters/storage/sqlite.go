package storage

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements the session store and settings cache using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// KVEntry is one key of the client's local storage area.
type KVEntry struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// TableName keeps the table name stable across model renames.
func (KVEntry) TableName() string {
	return "kv_entries"
}

// SettingsSnapshotModel stores the last settings fetched from the backend.
// Only the row with ID 1 is ever written.
type SettingsSnapshotModel struct {
	ID         uint `gorm:"primaryKey"`
	Revision   string
	Interfaces string // JSON encoded domain.NetworkInterfaces
	Rules      string // JSON encoded domain.RuleSet
	Filters    string // JSON encoded []domain.CaptureFilter
	UpdatedAt  time.Time
}

// NewSQLiteAdapter initializes the database and migrates schema.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newAdapter(db)
}

func newAdapter(db *gorm.DB) (*SQLiteAdapter, error) {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics(), tracing.WithoutQueryVariables())); err != nil {
		return nil, fmt.Errorf("register tracing plugin: %w", err)
	}

	// Auto Migrate
	if err := db.AutoMigrate(&KVEntry{}, &SettingsSnapshotModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

// Close closes the underlying connection pool.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
