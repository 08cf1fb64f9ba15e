package domain

import "time"

// PacketRecord is one captured packet as the backend stores it.
type PacketRecord struct {
	ID        string  `json:"id"`
	SrcRegion string  `json:"src_region"`
	SrcIP     string  `json:"src_ip"`
	DstPort   int     `json:"dst_port"`
	Protocol  string  `json:"protocol"`
	Timestamp float64 `json:"timestamp"`
	Length    int     `json:"length"`
}

// Time returns the capture timestamp.
func (r PacketRecord) Time() time.Time {
	return unixFloat(r.Timestamp)
}

// TopSourceIP ranks a source address by traffic volume.
type TopSourceIP struct {
	IP                string  `json:"ip"`
	SrcRegion         string  `json:"src_region"`
	PercentagePackets float64 `json:"percentage_packets"`
	PercentageBytes   float64 `json:"percentage_bytes"`
	TotalPackets      int64   `json:"total_packets"`
	TotalBytes        int64   `json:"total_bytes"`
}

// ProtocolDistributionItem is the share of one protocol. Percentages are 0-100.
type ProtocolDistributionItem struct {
	Protocol        string  `json:"protocol"`
	PercentageCount float64 `json:"percentage_count"`
	PercentageBytes float64 `json:"percentage_bytes"`
	PacketCount     int64   `json:"packet_count"`
	TotalBytes      int64   `json:"total_bytes"`
}

// ProtocolDistribution groups the per-protocol shares over a range.
type ProtocolDistribution struct {
	Distribution []ProtocolDistributionItem `json:"distribution"`
	TimeRange    *TimeRange                 `json:"time_range,omitempty"`
}

// TrafficSummary is the dashboard headline over a range.
type TrafficSummary struct {
	TotalPackets         int64                 `json:"total_packets"`
	TotalBytes           int64                 `json:"total_bytes"`
	TopSourceIPs         []TopSourceIP         `json:"top_source_ips"`
	ProtocolDistribution *ProtocolDistribution `json:"protocol_distribution,omitempty"`
	TimeRange            *TimeRange            `json:"time_range,omitempty"`
}

// AveragePacketSize returns bytes per packet, 0 for an empty range.
func (s TrafficSummary) AveragePacketSize() float64 {
	if s.TotalPackets == 0 {
		return 0
	}
	return float64(s.TotalBytes) / float64(s.TotalPackets)
}

// TimeSeriesPoint is one bucket of the time series.
type TimeSeriesPoint struct {
	TotalPackets int64     `json:"total_packets"`
	TotalBytes   int64     `json:"total_bytes"`
	TimeRange    TimeRange `json:"time_range"`
}

// ProtocolAnalysis aggregates traffic of one protocol.
type ProtocolAnalysis struct {
	Protocol      string  `json:"protocol"`
	PacketCount   int64   `json:"packet_count"`
	TotalBytes    int64   `json:"total_bytes"`
	AvgPacketSize float64 `json:"avg_packet_size"`
	UniqueSources int64   `json:"unique_sources"`
}
