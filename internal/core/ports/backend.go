package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// QueryAPI fetches one page of a query. The raw envelope is decoded by the
// caller, which knows the record type of the kind.
type QueryAPI interface {
	Query(ctx context.Context, params domain.QueryParams) (json.RawMessage, error)
}

// ConfigAPI is the backend's capture-settings surface.
type ConfigAPI interface {
	Interfaces(ctx context.Context) (domain.NetworkInterfaces, error)
	SelectInterface(ctx context.Context, name string) (string, error)

	Rules(ctx context.Context) (domain.RuleSet, error)
	// SaveRule adds the rule or replaces the one with the same protocol.
	SaveRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error)
	DeleteRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error)

	Filters(ctx context.Context) ([]domain.CaptureFilter, error)
	// SaveFilters replaces the whole filter list.
	SaveFilters(ctx context.Context, filters []domain.CaptureFilter) ([]domain.CaptureFilter, error)
}

// SettingsSnapshot is the last known capture configuration.
type SettingsSnapshot struct {
	Interfaces domain.NetworkInterfaces `json:"interfaces"`
	Rules      domain.RuleSet           `json:"rules"`
	Filters    []domain.CaptureFilter   `json:"filters"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// SettingsCache keeps the last settings seen from the backend.
type SettingsCache interface {
	SaveSnapshot(ctx context.Context, snap SettingsSnapshot) error
	// LoadSnapshot returns false when nothing was cached yet.
	LoadSnapshot(ctx context.Context) (SettingsSnapshot, bool, error)
}

// ReportExporter renders a traffic report document.
type ReportExporter interface {
	ExportTrafficReport(report *domain.TrafficReport) ([]byte, error)
}

// CaptureAPI starts and stops the backend packet capture.
type CaptureAPI interface {
	StartCapture(ctx context.Context) (domain.CaptureAck, error)
	StopCapture(ctx context.Context) (domain.CaptureAck, error)
	CaptureStatus(ctx context.Context) (domain.CaptureStatus, error)
}
