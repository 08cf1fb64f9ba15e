package mockbackend

import (
	"errors"
	"fmt"
	"math"
	"net/netip"
	"sort"
	"strings"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// topSummarySources is how many sources the traffic summary embeds.
const topSummarySources = 5

// MaxSeriesPoints bounds the buckets a single time-series query may produce.
const MaxSeriesPoints = 10000

var ErrTooManyPoints = errors.New("time range too large for interval")

// RecordFilter selects records. Zero fields match everything.
type RecordFilter struct {
	TimeRange domain.TimeRange
	IPAddress string
	Protocol  string
	Port      int
	Region    string
}

// Dataset answers analytics queries over an in-memory record set sorted
// newest first.
type Dataset struct {
	records []domain.PacketRecord
}

// NewDataset wraps records. The slice is sorted in place.
func NewDataset(records []domain.PacketRecord) *Dataset {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	return &Dataset{records: records}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Bounds returns the time span the records cover.
func (d *Dataset) Bounds() domain.TimeRange {
	if len(d.records) == 0 {
		return domain.TimeRange{}
	}
	return domain.TimeRange{Start: d.records[len(d.records)-1].Timestamp, End: d.records[0].Timestamp}
}

// Filter returns the matching records, newest first.
func (d *Dataset) Filter(f RecordFilter) []domain.PacketRecord {
	var prefix netip.Prefix
	hasPrefix := false
	if f.IPAddress != "" && domain.IsCIDR(f.IPAddress) {
		if p, err := netip.ParsePrefix(f.IPAddress); err == nil {
			prefix, hasPrefix = p.Masked(), true
		}
	}

	out := make([]domain.PacketRecord, 0)
	for _, r := range d.records {
		if !f.TimeRange.IsZero() && (r.Timestamp < f.TimeRange.Start || r.Timestamp > f.TimeRange.End) {
			continue
		}
		if f.Protocol != "" && !strings.EqualFold(r.Protocol, f.Protocol) {
			continue
		}
		if f.Port != 0 && r.DstPort != f.Port {
			continue
		}
		if f.Region != "" && !strings.EqualFold(r.SrcRegion, f.Region) {
			continue
		}
		if f.IPAddress != "" {
			if hasPrefix {
				addr, err := netip.ParseAddr(r.SrcIP)
				if err != nil || !prefix.Contains(addr) {
					continue
				}
			} else if r.SrcIP != f.IPAddress {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// Distribution returns per-protocol shares, largest volume first.
func Distribution(records []domain.PacketRecord) []domain.ProtocolDistributionItem {
	type acc struct{ packets, bytes int64 }
	by := map[string]*acc{}
	var totalPackets, totalBytes int64
	for _, r := range records {
		a, ok := by[r.Protocol]
		if !ok {
			a = &acc{}
			by[r.Protocol] = a
		}
		a.packets++
		a.bytes += int64(r.Length)
		totalPackets++
		totalBytes += int64(r.Length)
	}

	items := make([]domain.ProtocolDistributionItem, 0, len(by))
	for proto, a := range by {
		items = append(items, domain.ProtocolDistributionItem{
			Protocol:        proto,
			PacketCount:     a.packets,
			TotalBytes:      a.bytes,
			PercentageCount: percent(a.packets, totalPackets),
			PercentageBytes: percent(a.bytes, totalBytes),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalBytes != items[j].TotalBytes {
			return items[i].TotalBytes > items[j].TotalBytes
		}
		return items[i].Protocol < items[j].Protocol
	})
	return items
}

// TopSources ranks senders by volume.
func TopSources(records []domain.PacketRecord) []domain.TopSourceIP {
	by := map[string]*domain.TopSourceIP{}
	var totalPackets, totalBytes int64
	for _, r := range records {
		s, ok := by[r.SrcIP]
		if !ok {
			s = &domain.TopSourceIP{IP: r.SrcIP, SrcRegion: r.SrcRegion}
			by[r.SrcIP] = s
		}
		s.TotalPackets++
		s.TotalBytes += int64(r.Length)
		totalPackets++
		totalBytes += int64(r.Length)
	}

	out := make([]domain.TopSourceIP, 0, len(by))
	for _, s := range by {
		s.PercentagePackets = percent(s.TotalPackets, totalPackets)
		s.PercentageBytes = percent(s.TotalBytes, totalBytes)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalBytes != out[j].TotalBytes {
			return out[i].TotalBytes > out[j].TotalBytes
		}
		return out[i].IP < out[j].IP
	})
	return out
}

// Summary builds the dashboard headline for records within tr.
func Summary(records []domain.PacketRecord, tr domain.TimeRange) domain.TrafficSummary {
	sum := domain.TrafficSummary{TopSourceIPs: []domain.TopSourceIP{}}
	for _, r := range records {
		sum.TotalPackets++
		sum.TotalBytes += int64(r.Length)
	}
	top := TopSources(records)
	if len(top) > topSummarySources {
		top = top[:topSummarySources]
	}
	sum.TopSourceIPs = top
	sum.ProtocolDistribution = &domain.ProtocolDistribution{Distribution: Distribution(records), TimeRange: rangePtr(tr)}
	sum.TimeRange = rangePtr(tr)
	return sum
}

// Analysis aggregates per protocol, or only the named one.
func Analysis(records []domain.PacketRecord, protocol string) []domain.ProtocolAnalysis {
	type acc struct {
		packets, bytes int64
		sources        map[string]struct{}
	}
	by := map[string]*acc{}
	for _, r := range records {
		if protocol != "" && !strings.EqualFold(r.Protocol, protocol) {
			continue
		}
		a, ok := by[r.Protocol]
		if !ok {
			a = &acc{sources: map[string]struct{}{}}
			by[r.Protocol] = a
		}
		a.packets++
		a.bytes += int64(r.Length)
		a.sources[r.SrcIP] = struct{}{}
	}

	out := make([]domain.ProtocolAnalysis, 0, len(by))
	for proto, a := range by {
		out = append(out, domain.ProtocolAnalysis{
			Protocol:      proto,
			PacketCount:   a.packets,
			TotalBytes:    a.bytes,
			AvgPacketSize: float64(a.bytes) / float64(a.packets),
			UniqueSources: int64(len(a.sources)),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PacketCount > out[j].PacketCount })
	return out
}

// Series buckets records into consecutive intervals of tr, oldest first.
// Empty buckets are kept so charts have a continuous axis.
func Series(records []domain.PacketRecord, tr domain.TimeRange, interval int) ([]domain.TimeSeriesPoint, error) {
	if interval <= 0 || tr.End <= tr.Start {
		return []domain.TimeSeriesPoint{}, nil
	}
	step := float64(interval)
	buckets := math.Ceil((tr.End - tr.Start) / step)
	if !(buckets <= MaxSeriesPoints) {
		return nil, fmt.Errorf("%w: at most %d points", ErrTooManyPoints, MaxSeriesPoints)
	}
	n := int(buckets)
	points := make([]domain.TimeSeriesPoint, n)
	for i := range points {
		start := tr.Start + float64(i)*step
		end := start + step
		if end > tr.End {
			end = tr.End
		}
		points[i].TimeRange = domain.TimeRange{Start: start, End: end}
	}
	for _, r := range records {
		if r.Timestamp < tr.Start || r.Timestamp > tr.End {
			continue
		}
		i := int((r.Timestamp - tr.Start) / step)
		if i >= n {
			i = n - 1
		}
		points[i].TotalPackets++
		points[i].TotalBytes += int64(r.Length)
	}
	return points, nil
}

// paginate cuts one page out of items. Pages past the end are empty.
func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func percent(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func rangePtr(tr domain.TimeRange) *domain.TimeRange {
	if tr.IsZero() {
		return nil
	}
	return &tr
}
