package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain Errors for capture filters
var (
	ErrInvalidAddress   = errors.New("invalid IP address or CIDR")
	ErrInvalidProtocol  = errors.New("protocol must be one of tcp, udp, icmp, all")
	ErrInvalidOperation = errors.New("operation must be Include or Exclude")
	ErrInvalidDirection = errors.New("direction must be Inbound or Outbound")
	ErrFilterIndex      = errors.New("filter index out of range")
)

// Protocol is the transport selector of a capture filter.
type Protocol string

const (
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolICMP Protocol = "icmp"
	ProtocolAll  Protocol = "all"
)

// IsValid accepts the known protocols. The empty value means "not set".
func (p Protocol) IsValid() bool {
	switch p {
	case ProtocolTCP, ProtocolUDP, ProtocolICMP, ProtocolAll:
		return true
	}
	return false
}

// FilterOperation decides whether matching traffic is kept or dropped.
type FilterOperation string

const (
	OperationInclude FilterOperation = "Include"
	OperationExclude FilterOperation = "Exclude"
)

// Direction is the traffic direction a filter applies to.
type Direction string

const (
	DirectionInbound  Direction = "Inbound"
	DirectionOutbound Direction = "Outbound"
)

// CaptureFilter is an include/exclude rule over addresses, ports and protocol.
// Every matching field is optional; an unset field matches anything.
type CaptureFilter struct {
	SrcIP     string          `json:"src_ip,omitempty"`
	DstIP     string          `json:"dst_ip,omitempty"`
	SrcPort   []int           `json:"src_port,omitempty"`
	DstPort   []int           `json:"dst_port,omitempty"`
	Protocol  Protocol        `json:"protocol,omitempty"`
	Operation FilterOperation `json:"operation"`
	Direction Direction       `json:"direction"`
}

// NewCaptureFilter returns the form defaults: include inbound traffic.
func NewCaptureFilter() *CaptureFilter {
	return &CaptureFilter{
		Operation: OperationInclude,
		Direction: DirectionInbound,
	}
}

// --- Builder Pattern Methods ---

func (f *CaptureFilter) WithSource(ip string, ports ...int) *CaptureFilter {
	f.SrcIP = ip
	f.SrcPort = ports
	return f
}

func (f *CaptureFilter) WithDestination(ip string, ports ...int) *CaptureFilter {
	f.DstIP = ip
	f.DstPort = ports
	return f
}

func (f *CaptureFilter) WithProtocol(p Protocol) *CaptureFilter {
	f.Protocol = p
	return f
}

func (f *CaptureFilter) Excluding() *CaptureFilter {
	f.Operation = OperationExclude
	return f
}

func (f *CaptureFilter) Outbound() *CaptureFilter {
	f.Direction = DirectionOutbound
	return f
}

// Validate ensures every set field is within its domain.
func (f *CaptureFilter) Validate() error {
	if f.SrcIP != "" && !IsValidIPOrCIDR(f.SrcIP) {
		return fmt.Errorf("%w: src_ip %q", ErrInvalidAddress, f.SrcIP)
	}
	if f.DstIP != "" && !IsValidIPOrCIDR(f.DstIP) {
		return fmt.Errorf("%w: dst_ip %q", ErrInvalidAddress, f.DstIP)
	}
	for _, p := range f.SrcPort {
		if !IsValidPort(p) {
			return fmt.Errorf("%w: src_port %d", ErrInvalidPort, p)
		}
	}
	for _, p := range f.DstPort {
		if !IsValidPort(p) {
			return fmt.Errorf("%w: dst_port %d", ErrInvalidPort, p)
		}
	}
	if f.Protocol != "" && !f.Protocol.IsValid() {
		return ErrInvalidProtocol
	}
	switch f.Operation {
	case OperationInclude, OperationExclude:
	default:
		return ErrInvalidOperation
	}
	switch f.Direction {
	case DirectionInbound, DirectionOutbound:
	default:
		return ErrInvalidDirection
	}
	return nil
}

// ValidateFilters checks a whole filter list, naming the first bad index.
func ValidateFilters(filters []CaptureFilter) error {
	for i := range filters {
		if err := filters[i].Validate(); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}

// BuildBPF renders filters as a BPF expression. Fields inside one filter are
// joined with "and", included filters with "or", and every excluded filter
// is appended as "and not". A protocol of "all" adds no term.
func BuildBPF(filters []CaptureFilter) string {
	var include, exclude []string
	for _, f := range filters {
		term := f.bpfTerm()
		if term == "" {
			continue
		}
		if f.Operation == OperationExclude {
			exclude = append(exclude, "not "+term)
		} else {
			include = append(include, term)
		}
	}

	expr := strings.Join(include, " or ")
	if len(include) > 1 && len(exclude) > 0 {
		expr = "(" + expr + ")"
	}
	if len(exclude) > 0 {
		if expr != "" {
			expr += " and "
		}
		expr += strings.Join(exclude, " and ")
	}
	return expr
}

func (f CaptureFilter) bpfTerm() string {
	var parts []string
	if f.SrcIP != "" {
		parts = append(parts, hostTerm("src", f.SrcIP))
	}
	if f.DstIP != "" {
		parts = append(parts, hostTerm("dst", f.DstIP))
	}
	if len(f.SrcPort) > 0 {
		parts = append(parts, portTerm("src", f.SrcPort))
	}
	if len(f.DstPort) > 0 {
		parts = append(parts, portTerm("dst", f.DstPort))
	}
	if f.Protocol != "" && f.Protocol != ProtocolAll {
		parts = append(parts, string(f.Protocol))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " and ") + ")"
}

func hostTerm(dir, addr string) string {
	if IsCIDR(addr) {
		return dir + " net " + addr
	}
	return dir + " host " + addr
}

func portTerm(dir string, ports []int) string {
	conds := make([]string, len(ports))
	for i, p := range ports {
		conds[i] = fmt.Sprintf("%s port %d", dir, p)
	}
	return "(" + strings.Join(conds, " or ") + ")"
}
