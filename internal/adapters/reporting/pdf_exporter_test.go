package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.TrafficReport {
	report := domain.NewTrafficReport("Weekly Traffic", domain.LastDuration(7*24*time.Hour))
	report.GeneratedBy = "alice"
	report.Summary = domain.TrafficSummary{TotalPackets: 1200, TotalBytes: 3_500_000}
	report.Distribution = []domain.ProtocolDistributionItem{
		{Protocol: "TCP", PercentageCount: 70, PercentageBytes: 80, PacketCount: 840, TotalBytes: 2_800_000},
		{Protocol: "UDP", PercentageCount: 25, PercentageBytes: 18, PacketCount: 300, TotalBytes: 630_000},
		{Protocol: "ICMP", PercentageCount: 5, PercentageBytes: 2, PacketCount: 60, TotalBytes: 70_000},
	}
	report.TopSources = []domain.TopSourceIP{
		{IP: "10.0.0.1", SrcRegion: "Europe/Madrid", TotalPackets: 400, TotalBytes: 1_200_000, PercentageBytes: 34.3},
		{IP: "192.168.1.20", SrcRegion: "America/New_York", TotalPackets: 250, TotalBytes: 700_000, PercentageBytes: 20},
	}
	return report
}

func TestPDFExporterExportTrafficReport(t *testing.T) {
	exporter := NewPDFExporter("Traffic Dashboard")

	report := sampleReport()
	for i := 0; i < 60; i++ {
		report.Records = append(report.Records, domain.PacketRecord{
			ID: "r", SrcIP: "10.0.0.1", Protocol: "TCP", DstPort: 443, Length: 1500,
			Timestamp: float64(time.Now().Unix() - int64(i)),
		})
	}
	report.TotalRecords = 250

	pdfBytes, err := exporter.ExportTrafficReport(report)
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)

	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF-")), "output should be a PDF document")
	assert.Greater(t, len(pdfBytes), 1000)
}

func TestPDFExporterEmptyReport(t *testing.T) {
	exporter := NewPDFExporter("Traffic Dashboard")

	report := domain.NewTrafficReport("Empty", domain.TimeRange{})
	pdfBytes, err := exporter.ExportTrafficReport(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF-")))

	_, err = exporter.ExportTrafficReport(nil)
	assert.Error(t, err)
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanBytes(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 16))
	assert.Equal(t, "America/New_Y...", truncate("America/New_York_Extra", 16))
}
