package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// Format selects how query results are written.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// ExportJSON writes any value as indented JSON
func ExportJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// ExportRecordsCSV writes packet records as CSV with headers
func ExportRecordsCSV(w io.Writer, records []domain.PacketRecord) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Header row
	headers := []string{"ID", "Timestamp", "SrcIP", "SrcRegion", "DstPort", "Protocol", "Length"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	// Data rows
	for _, r := range records {
		row := []string{
			r.ID,
			r.Time().Format(time.RFC3339Nano),
			r.SrcIP,
			r.SrcRegion,
			fmt.Sprintf("%d", r.DstPort),
			r.Protocol,
			fmt.Sprintf("%d", r.Length),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportTimeSeriesCSV writes time-series buckets as CSV
func ExportTimeSeriesCSV(w io.Writer, points []domain.TimeSeriesPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Header
	if err := writer.Write([]string{"Start", "End", "TotalPackets", "TotalBytes"}); err != nil {
		return err
	}

	// Data
	for _, p := range points {
		row := []string{
			p.TimeRange.StartTime().Format(time.RFC3339),
			p.TimeRange.EndTime().Format(time.RFC3339),
			fmt.Sprintf("%d", p.TotalPackets),
			fmt.Sprintf("%d", p.TotalBytes),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
