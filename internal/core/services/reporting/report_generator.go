package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/query"
)

const (
	// DefaultTopSources is how many senders the report ranks.
	DefaultTopSources = 10
	// reportRecordPage is the page of raw records embedded in the report.
	reportRecordPage = 50
)

// TrafficSource is the query surface the report is built from.
type TrafficSource interface {
	TrafficSummary(ctx context.Context, tr domain.TimeRange) (domain.TrafficSummary, error)
	ProtocolDistribution(ctx context.Context, tr domain.TimeRange) (domain.ProtocolDistribution, error)
	TopSourceIPs(ctx context.Context, tr domain.TimeRange, limit int) (query.Result[domain.TopSourceIP], error)
	Records(ctx context.Context, params domain.QueryParams) (query.Result[domain.PacketRecord], error)
}

// ReportOptions tunes what goes into a report.
type ReportOptions struct {
	Title          string
	GeneratedBy    string
	TopSources     int
	IncludeRecords bool
}

// ReportGenerator assembles traffic reports from live queries
type ReportGenerator struct {
	source   TrafficSource
	exporter ports.ReportExporter
	now      func() time.Time
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(source TrafficSource, exporter ports.ReportExporter) *ReportGenerator {
	return &ReportGenerator{
		source:   source,
		exporter: exporter,
		now:      time.Now,
	}
}

// Generate fetches every section of the report for tr. An empty range gives
// a report with zero totals rather than an error.
func (g *ReportGenerator) Generate(ctx context.Context, tr domain.TimeRange, opts ReportOptions) (*domain.TrafficReport, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = "Network Traffic Report"
	}
	if opts.TopSources <= 0 {
		opts.TopSources = DefaultTopSources
	}

	report := domain.NewTrafficReport(opts.Title, tr)
	report.GeneratedAt = g.now().UTC()
	report.GeneratedBy = opts.GeneratedBy

	summary, err := g.source.TrafficSummary(ctx, tr)
	if err != nil && !errors.Is(err, query.ErrEmptyResult) {
		return nil, fmt.Errorf("failed to fetch traffic summary: %w", err)
	}
	report.Summary = summary

	if summary.ProtocolDistribution != nil {
		report.Distribution = summary.ProtocolDistribution.Distribution
	} else {
		dist, err := g.source.ProtocolDistribution(ctx, tr)
		if err != nil && !errors.Is(err, query.ErrEmptyResult) {
			return nil, fmt.Errorf("failed to fetch protocol distribution: %w", err)
		}
		report.Distribution = dist.Distribution
	}

	top, err := g.source.TopSourceIPs(ctx, tr, opts.TopSources)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top sources: %w", err)
	}
	report.TopSources = top.Items()

	if opts.IncludeRecords {
		params := domain.NewQueryParams(domain.QueryByTimeRange, tr)
		params.PageSize = reportRecordPage
		records, err := g.source.Records(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch records: %w", err)
		}
		report.Records = records.Items()
		report.TotalRecords = records.Page.Total
	}

	return report, nil
}

// Render generates the report and exports it as a document.
func (g *ReportGenerator) Render(ctx context.Context, tr domain.TimeRange, opts ReportOptions) ([]byte, error) {
	if g.exporter == nil {
		return nil, errors.New("no report exporter configured")
	}
	report, err := g.Generate(ctx, tr, opts)
	if err != nil {
		return nil, err
	}
	return g.exporter.ExportTrafficReport(report)
}
