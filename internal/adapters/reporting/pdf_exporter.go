package reporting

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// maxRecordRows caps the raw record table so the report stays printable.
const maxRecordRows = 40

var _ ports.ReportExporter = (*PDFExporter)(nil)

// PDFExporter exports traffic reports to PDF format
type PDFExporter struct {
	appName string
}

// NewPDFExporter creates a new PDF exporter instance. appName is printed in
// the footer.
func NewPDFExporter(appName string) *PDFExporter {
	return &PDFExporter{appName: appName}
}

// ExportTrafficReport renders the report as a single A4 document
func (e *PDFExporter) ExportTrafficReport(report *domain.TrafficReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("nil report")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFooterFunc(func() { e.addFooter(pdf, report) })
	pdf.AliasNbPages("")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addSummary(pdf, report)
	e.addDistribution(pdf, report)
	e.addTopSources(pdf, report)
	if len(report.Records) > 0 {
		e.addRecords(pdf, report)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addHeader adds title, generation time and covered range
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 14, report.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	generated := fmt.Sprintf("Generated: %s", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	if report.GeneratedBy != "" {
		generated += " by " + report.GeneratedBy
	}
	pdf.CellFormat(0, 6, generated, "", 1, "L", false, 0, "")

	if !report.TimeRange.IsZero() {
		period := fmt.Sprintf("Period: %s to %s",
			report.TimeRange.StartTime().UTC().Format("2006-01-02 15:04"),
			report.TimeRange.EndTime().UTC().Format("2006-01-02 15:04"))
		pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

func (e *PDFExporter) sectionTitle(pdf *gofpdf.Fpdf, title string) {
	if pdf.GetY() > 250 {
		pdf.AddPage()
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func (e *PDFExporter) emptyNote(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Arial", "I", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 7, text, "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// addSummary adds the headline totals in two columns
func (e *PDFExporter) addSummary(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	e.sectionTitle(pdf, "Traffic Overview")

	sum := report.Summary
	stats := []struct {
		label string
		value string
	}{
		{"Total Packets", fmt.Sprintf("%d", sum.TotalPackets)},
		{"Total Volume", humanBytes(sum.TotalBytes)},
		{"Average Packet", fmt.Sprintf("%.0f B", sum.AveragePacketSize())},
		{"Protocols Seen", fmt.Sprintf("%d", len(report.Distribution))},
		{"Distinct Top Sources", fmt.Sprintf("%d", len(report.TopSources))},
		{"Matching Records", fmt.Sprintf("%d", report.TotalRecords)},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(0, 102, 204)
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

// addDistribution adds the per-protocol share table
func (e *PDFExporter) addDistribution(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	e.sectionTitle(pdf, "Protocol Distribution")

	if len(report.Distribution) == 0 {
		e.emptyNote(pdf, "No traffic in this period")
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(40, 8, "Protocol", "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 8, "Packets", "1", 0, "R", true, 0, "")
	pdf.CellFormat(25, 8, "% Packets", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "Volume", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 8, "% Volume", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, item := range report.Distribution {
		r, g, b := e.getShareColor(item.PercentageBytes)

		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, item.Protocol, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%d", item.PacketCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f", item.PercentageCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, humanBytes(item.TotalBytes), "1", 0, "R", false, 0, "")

		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(35, 7, fmt.Sprintf("%.1f", item.PercentageBytes), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
}

// getShareColor highlights protocols that dominate the volume
func (e *PDFExporter) getShareColor(percentage float64) (r, g, b int) {
	switch {
	case percentage >= 50:
		return 220, 53, 69 // Red
	case percentage >= 25:
		return 255, 149, 0 // Orange
	case percentage >= 10:
		return 0, 102, 204 // Blue
	default:
		return 100, 100, 100 // Gray
	}
}

// addTopSources adds the busiest source table
func (e *PDFExporter) addTopSources(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	e.sectionTitle(pdf, "Top Source IPs")

	if len(report.TopSources) == 0 {
		e.emptyNote(pdf, "No sources recorded")
		return
	}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(15, 8, "Rank", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 8, "Source IP", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Region", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Packets", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Volume", "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 8, "% Vol", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(60, 60, 60)
	for i, src := range report.TopSources {
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, src.IP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, truncate(src.SrcRegion, 16), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%d", src.TotalPackets), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, humanBytes(src.TotalBytes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%.1f", src.PercentageBytes), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
}

// addRecords adds the first page of raw packet records
func (e *PDFExporter) addRecords(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	e.sectionTitle(pdf, "Packet Records")

	rows := report.Records
	if len(rows) > maxRecordRows {
		rows = rows[:maxRecordRows]
	}

	header := func() {
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 9)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(40, 7, "Time (UTC)", "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, "Source", "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 7, "Region", "1", 0, "L", true, 0, "")
		pdf.CellFormat(25, 7, "Protocol", "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 7, "Port", "1", 0, "R", true, 0, "")
		pdf.CellFormat(20, 7, "Length", "1", 1, "R", true, 0, "")
		pdf.SetFont("Arial", "", 8)
	}
	header()

	for _, rec := range rows {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(40, 6, rec.Time().UTC().Format(time.DateTime), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, rec.SrcIP, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, truncate(rec.SrcRegion, 16), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, rec.Protocol, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", rec.DstPort), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", rec.Length), "1", 1, "R", false, 0, "")
	}

	if report.TotalRecords > len(rows) {
		pdf.Ln(2)
		e.emptyNote(pdf, fmt.Sprintf("Showing %d of %d records", len(rows), report.TotalRecords))
	}
}

// addFooter adds the page footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.TrafficReport) {
	pdf.SetY(-20)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	footerText := fmt.Sprintf("Generated by %s | Page %d/{nb}", e.appName, pdf.PageNo())
	pdf.CellFormat(0, 5, footerText, "", 1, "C", false, 0, "")
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
