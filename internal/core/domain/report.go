package domain

import "time"

// TrafficReport aggregates all data needed for the printable traffic report.
type TrafficReport struct {
	Title       string
	GeneratedAt time.Time
	GeneratedBy string // Username, empty when anonymous
	TimeRange   TimeRange

	Summary      TrafficSummary
	Distribution []ProtocolDistributionItem
	TopSources   []TopSourceIP

	// Optional first page of raw records
	Records      []PacketRecord
	TotalRecords int
}

// NewTrafficReport creates an empty report for a range.
func NewTrafficReport(title string, tr TimeRange) *TrafficReport {
	return &TrafficReport{
		Title:       title,
		GeneratedAt: time.Now().UTC(),
		TimeRange:   tr,
	}
}
