package mockbackend

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/uuid"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// Regions reported for generated sources
var regions = []string{
	"Europe/Madrid", "Europe/Berlin", "Europe/London", "America/New_York",
	"America/Los_Angeles", "America/Sao_Paulo", "Asia/Shanghai", "Asia/Tokyo",
	"Asia/Singapore", "Australia/Sydney", "Africa/Johannesburg", "Local",
}

// Destination ports per transport, weighted towards web traffic
var (
	tcpPorts   = []layers.TCPPort{443, 80, 22, 8080, 3306, 5432, 6379, 25, 993}
	tcpWeights = []float32{0.45, 0.2, 0.08, 0.07, 0.05, 0.05, 0.04, 0.03, 0.03}
	udpPorts   = []layers.UDPPort{53, 123, 161, 5353, 443}
	udpWeights = []float32{0.5, 0.15, 0.1, 0.1, 0.15}
)

// Transport mix of generated packets
var (
	protocols       = []layers.IPProtocol{layers.IPProtocolTCP, layers.IPProtocolUDP, layers.IPProtocolICMPv4}
	protocolWeights = []float32{0.7, 0.25, 0.05}
)

type mockSource struct {
	IP     string
	Region string
	Weight float32
}

// DataGenerator generates mock packet records
type DataGenerator struct {
	rand    *rand.Rand
	sources []mockSource
}

// NewDataGenerator creates a deterministic generator for seed
func NewDataGenerator(seed int64) *DataGenerator {
	g := &DataGenerator{rand: rand.New(rand.NewSource(seed))}
	g.sources = g.generateSources(24)
	return g
}

// generateSources creates a mix of private and public senders. A few of them
// are heavy talkers so top-N views have a clear ranking.
func (g *DataGenerator) generateSources(n int) []mockSource {
	sources := make([]mockSource, 0, n)
	for i := 0; i < n; i++ {
		var ip, region string
		if g.rand.Float32() < 0.4 {
			ip = fmt.Sprintf("192.168.%d.%d", g.rand.Intn(4), 2+g.rand.Intn(250))
			region = "Local"
		} else {
			ip = fmt.Sprintf("%d.%d.%d.%d", 11+g.rand.Intn(180), g.rand.Intn(256), g.rand.Intn(256), 1+g.rand.Intn(254))
			region = regions[g.rand.Intn(len(regions)-1)]
		}
		weight := float32(1)
		if i < 3 {
			weight = float32(8 - 2*i)
		}
		sources = append(sources, mockSource{IP: ip, Region: region, Weight: weight})
	}
	return sources
}

// Generate creates n records spread over the span ending at end, newest first
func (g *DataGenerator) Generate(n int, end time.Time, span time.Duration) []domain.PacketRecord {
	weights := make([]float32, len(g.sources))
	for i, s := range g.sources {
		weights[i] = s.Weight
	}

	records := make([]domain.PacketRecord, 0, n)
	for i := 0; i < n; i++ {
		src := g.sources[weightedIndex(g.rand, weights)]
		proto := protocols[weightedIndex(g.rand, protocolWeights)]

		rec := domain.PacketRecord{
			ID:        g.newID(),
			SrcRegion: src.Region,
			SrcIP:     src.IP,
			Protocol:  proto.String(),
			Timestamp: float64(end.Add(-time.Duration(g.rand.Int63n(int64(span)))).UnixMilli()) / 1000,
		}

		switch proto {
		case layers.IPProtocolTCP:
			rec.DstPort = int(tcpPorts[weightedIndex(g.rand, tcpWeights)])
			rec.Length = 54 + g.rand.Intn(1460)
		case layers.IPProtocolUDP:
			rec.DstPort = int(udpPorts[weightedIndex(g.rand, udpWeights)])
			rec.Length = 42 + g.rand.Intn(512)
		default:
			rec.Length = 74 + g.rand.Intn(24)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp > records[j].Timestamp })
	return records
}

// newID draws a UUID from the seeded source so datasets are reproducible.
func (g *DataGenerator) newID() string {
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Interfaces returns the capture interfaces the mock host offers
func (g *DataGenerator) Interfaces() []string {
	return []string{"eth0", "wlan0", "lo", "docker0"}
}

// DefaultRules returns the protocol-port mapping the backend starts with.
// Names come from the well-known port table.
func (g *DataGenerator) DefaultRules() []domain.ProtocolPortRule {
	byName := map[string][]int{}
	var order []string
	for _, p := range []layers.TCPPort{80, 443, 22, 25, 53} {
		name, ok := servicePortName(p)
		if !ok {
			continue
		}
		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}
		byName[name] = append(byName[name], int(p))
	}
	if _, ok := byName["http"]; !ok {
		order = append(order, "http")
	}
	byName["http"] = append(byName["http"], 8080)

	rules := make([]domain.ProtocolPortRule, 0, len(order))
	for _, name := range order {
		rules = append(rules, domain.ProtocolPortRule{Protocol: name, Ports: byName[name]}.Normalize())
	}
	return rules
}

// servicePortName extracts the service name from the "443(https)" form
// gopacket prints well-known ports in.
func servicePortName(p layers.TCPPort) (string, bool) {
	s := p.String()
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[open+1 : len(s)-1], true
}

func weightedIndex(r *rand.Rand, weights []float32) int {
	var total float32
	for _, w := range weights {
		total += w
	}
	target := r.Float32() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return i
		}
	}
	return len(weights) - 1
}
