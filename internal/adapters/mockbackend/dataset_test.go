package mockbackend

import (
	"math"
	"testing"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnd = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func rec(ip, proto string, port, length int, ts float64) domain.PacketRecord {
	return domain.PacketRecord{SrcIP: ip, SrcRegion: "Local", Protocol: proto, DstPort: port, Length: length, Timestamp: ts}
}

func sampleRecords() []domain.PacketRecord {
	return []domain.PacketRecord{
		rec("10.0.0.1", "TCP", 443, 100, 1000),
		rec("10.0.0.1", "TCP", 80, 300, 1010),
		rec("10.0.0.2", "UDP", 53, 50, 1020),
		rec("192.168.1.5", "UDP", 53, 50, 1030),
		rec("192.168.1.5", "ICMPv4", 0, 100, 1090),
	}
}

func TestDataGenerator_Deterministic(t *testing.T) {
	a := NewDataGenerator(42).Generate(200, testEnd, time.Hour)
	b := NewDataGenerator(42).Generate(200, testEnd, time.Hour)
	require.Len(t, a, 200)
	assert.Equal(t, a, b)

	c := NewDataGenerator(7).Generate(200, testEnd, time.Hour)
	assert.NotEqual(t, a, c)
}

func TestDataGenerator_RecordsWithinSpan(t *testing.T) {
	records := NewDataGenerator(1).Generate(500, testEnd, time.Hour)
	start := float64(testEnd.Add(-time.Hour).UnixMilli()) / 1000
	end := float64(testEnd.UnixMilli()) / 1000

	for i, r := range records {
		assert.GreaterOrEqual(t, r.Timestamp, start)
		assert.LessOrEqual(t, r.Timestamp, end)
		assert.NotEmpty(t, r.ID)
		assert.True(t, domain.IsValidIP(r.SrcIP), r.SrcIP)
		assert.Contains(t, []string{"TCP", "UDP", "ICMPv4"}, r.Protocol)
		if i > 0 {
			assert.LessOrEqual(t, r.Timestamp, records[i-1].Timestamp, "records must be newest first")
		}
	}
}

func TestDataGenerator_DefaultRules(t *testing.T) {
	rules := domain.RuleSet{Rules: NewDataGenerator(1).DefaultRules()}
	require.NotEmpty(t, rules.Rules)

	http, ok := rules.Find("http")
	require.True(t, ok)
	assert.Contains(t, http.Ports, 8080)
	for _, r := range rules.Rules {
		assert.NoError(t, r.Validate())
	}
}

func TestDataset_Filter(t *testing.T) {
	ds := NewDataset(sampleRecords())
	assert.Equal(t, 5, ds.Len())
	assert.Equal(t, domain.TimeRange{Start: 1000, End: 1090}, ds.Bounds())

	tests := []struct {
		name   string
		filter RecordFilter
		want   int
	}{
		{"Everything", RecordFilter{}, 5},
		{"Exact IP", RecordFilter{IPAddress: "10.0.0.1"}, 2},
		{"CIDR", RecordFilter{IPAddress: "10.0.0.0/24"}, 3},
		{"Protocol is case-insensitive", RecordFilter{Protocol: "udp"}, 2},
		{"Port", RecordFilter{Port: 53}, 2},
		{"Region", RecordFilter{Region: "local"}, 5},
		{"Time range is closed", RecordFilter{TimeRange: domain.TimeRange{Start: 1010, End: 1030}}, 3},
		{"No match", RecordFilter{IPAddress: "8.8.8.8"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ds.Filter(tt.filter)
			assert.Len(t, got, tt.want)
			assert.NotNil(t, got)
		})
	}

	// Newest first
	all := ds.Filter(RecordFilter{})
	assert.Equal(t, 1090.0, all[0].Timestamp)
}

func TestDistribution(t *testing.T) {
	items := Distribution(sampleRecords())
	require.Len(t, items, 3)

	assert.Equal(t, "TCP", items[0].Protocol)
	assert.Equal(t, int64(2), items[0].PacketCount)
	assert.Equal(t, int64(400), items[0].TotalBytes)
	assert.InDelta(t, 40.0, items[0].PercentageCount, 0.001)
	assert.InDelta(t, 66.666, items[0].PercentageBytes, 0.01)

	var sum float64
	for _, it := range items {
		sum += it.PercentageCount
	}
	assert.InDelta(t, 100.0, sum, 0.001)

	assert.Empty(t, Distribution(nil))
}

func TestTopSourcesAndSummary(t *testing.T) {
	top := TopSources(sampleRecords())
	require.Len(t, top, 3)
	assert.Equal(t, "10.0.0.1", top[0].IP)
	assert.Equal(t, int64(400), top[0].TotalBytes)

	tr := domain.TimeRange{Start: 1000, End: 1100}
	sum := Summary(sampleRecords(), tr)
	assert.Equal(t, int64(5), sum.TotalPackets)
	assert.Equal(t, int64(600), sum.TotalBytes)
	assert.Len(t, sum.TopSourceIPs, 3)
	require.NotNil(t, sum.ProtocolDistribution)
	assert.Len(t, sum.ProtocolDistribution.Distribution, 3)
	assert.Equal(t, &tr, sum.TimeRange)

	empty := Summary(nil, tr)
	assert.Zero(t, empty.TotalPackets)
	assert.NotNil(t, empty.TopSourceIPs)
}

func TestAnalysis(t *testing.T) {
	all := Analysis(sampleRecords(), "")
	assert.Len(t, all, 3)

	udp := Analysis(sampleRecords(), "udp")
	require.Len(t, udp, 1)
	assert.Equal(t, int64(2), udp[0].PacketCount)
	assert.Equal(t, int64(2), udp[0].UniqueSources)
	assert.InDelta(t, 50.0, udp[0].AvgPacketSize, 0.001)
}

func TestSeries(t *testing.T) {
	points, err := Series(sampleRecords(), domain.TimeRange{Start: 1000, End: 1090}, 30)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, domain.TimeRange{Start: 1000, End: 1030}, points[0].TimeRange)
	assert.Equal(t, int64(3), points[0].TotalPackets)
	assert.Equal(t, int64(1), points[1].TotalPackets)
	// The record on the closing edge lands in the last bucket
	assert.Equal(t, int64(1), points[2].TotalPackets)
	assert.Equal(t, 1090.0, points[2].TimeRange.End)

	points, err = Series(sampleRecords(), domain.TimeRange{Start: 1000, End: 1090}, 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSeries_BoundsBucketCount(t *testing.T) {
	_, err := Series(nil, domain.TimeRange{Start: 1, End: 1e300}, 1)
	assert.ErrorIs(t, err, ErrTooManyPoints)

	_, err = Series(nil, domain.TimeRange{Start: 0, End: MaxSeriesPoints + 1}, 1)
	assert.ErrorIs(t, err, ErrTooManyPoints)

	_, err = Series(nil, domain.TimeRange{Start: 0, End: math.Inf(1)}, 60)
	assert.ErrorIs(t, err, ErrTooManyPoints)

	points, err := Series(nil, domain.TimeRange{Start: 0, End: MaxSeriesPoints}, 1)
	require.NoError(t, err)
	assert.Len(t, points, MaxSeriesPoints)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, paginate(items, 1, 2))
	assert.Equal(t, []int{5}, paginate(items, 3, 2))
	assert.Equal(t, []int{}, paginate(items, 4, 2))
}
