package domain

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Domain errors for query descriptors.
var (
	ErrUnknownQueryKind  = errors.New("unknown query kind")
	ErrMissingTimeRange  = errors.New("query requires a time range")
	ErrInvalidTimeRange  = errors.New("time range start cannot be later than end")
	ErrInvalidPage       = errors.New("page must be 1 or greater")
	ErrInvalidPageSize   = errors.New("page size must be between 1 and 100")
	ErrMissingQueryField = errors.New("query is missing its filter field")
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
	ErrInvalidInterval   = errors.New("interval must be positive")
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// QueryKind selects one backend query endpoint.
type QueryKind string

const (
	QueryBySourceIP           QueryKind = "source-ip"
	QueryByProtocol           QueryKind = "protocol"
	QueryByTimeRange          QueryKind = "time"
	QueryByDestinationPort    QueryKind = "port"
	QueryBySourceRegion       QueryKind = "region"
	QueryTimeSeries           QueryKind = "time-series"
	QueryTrafficSummary       QueryKind = "traffic-summary"
	QueryProtocolDistribution QueryKind = "protocol-distribution"
	QueryProtocolAnalysis     QueryKind = "protocol-analysis"
	QueryTopSourceIPs         QueryKind = "top-source-ips"
)

// QueryKinds lists every kind in display order.
var QueryKinds = []QueryKind{
	QueryBySourceIP,
	QueryByProtocol,
	QueryByTimeRange,
	QueryByDestinationPort,
	QueryBySourceRegion,
	QueryTimeSeries,
	QueryTrafficSummary,
	QueryProtocolDistribution,
	QueryProtocolAnalysis,
	QueryTopSourceIPs,
}

// Query string field names.
const (
	ParamPage      = "page"
	ParamPageSize  = "page_size"
	ParamStart     = "start"
	ParamEnd       = "end"
	ParamProtocol  = "protocol"
	ParamIPAddress = "ip_address"
	ParamPort      = "port"
	ParamRegion    = "region"
	ParamInterval  = "interval"
)

// ParseQueryKind accepts the endpoint name of a kind.
func ParseQueryKind(s string) (QueryKind, error) {
	k := QueryKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownQueryKind, s)
	}
	return k, nil
}

// IsValid reports whether k is one of the known kinds.
func (k QueryKind) IsValid() bool {
	for _, known := range QueryKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Endpoint returns the backend path serving this kind.
func (k QueryKind) Endpoint() string {
	return "/query/" + string(k)
}

// FilterField names the kind-specific parameter the kind requires, or "" when
// the kind is an aggregate over the time range only.
func (k QueryKind) FilterField() string {
	switch k {
	case QueryBySourceIP:
		return ParamIPAddress
	case QueryByProtocol:
		return ParamProtocol
	case QueryByDestinationPort:
		return ParamPort
	case QueryBySourceRegion:
		return ParamRegion
	}
	return ""
}

// ReturnsRecords reports whether the kind pages raw packet records.
func (k QueryKind) ReturnsRecords() bool {
	switch k {
	case QueryBySourceIP, QueryByProtocol, QueryByTimeRange, QueryByDestinationPort, QueryBySourceRegion:
		return true
	}
	return false
}

// TimeRange is a closed interval expressed in unix seconds on the wire.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// NewTimeRange converts wall clock times.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{
		Start: float64(start.UnixMilli()) / 1000,
		End:   float64(end.UnixMilli()) / 1000,
	}
}

// LastDuration returns the range ending now.
func LastDuration(d time.Duration) TimeRange {
	now := time.Now()
	return NewTimeRange(now.Add(-d), now)
}

// IsZero reports whether no range was set.
func (r TimeRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

// Validate checks the range is present and ordered.
func (r TimeRange) Validate() error {
	if r.IsZero() {
		return ErrMissingTimeRange
	}
	if r.Start > r.End {
		return ErrInvalidTimeRange
	}
	return nil
}

// StartTime returns the start as a time.Time.
func (r TimeRange) StartTime() time.Time {
	return unixFloat(r.Start)
}

// EndTime returns the end as a time.Time.
func (r TimeRange) EndTime() time.Time {
	return unixFloat(r.End)
}

func unixFloat(v float64) time.Time {
	return time.UnixMilli(int64(v * 1000)).UTC()
}

// QueryParams is a query descriptor: one kind plus its parameters.
type QueryParams struct {
	Kind      QueryKind `json:"kind"`
	TimeRange TimeRange `json:"time_range"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
	IPAddress string    `json:"ip_address,omitempty"`
	Protocol  string    `json:"protocol,omitempty"`
	Port      int       `json:"port,omitempty"`
	Region    string    `json:"region,omitempty"`
	Interval  int       `json:"interval,omitempty"` // seconds, time-series only
}

// NewQueryParams returns first-page parameters with the default page size.
func NewQueryParams(kind QueryKind, tr TimeRange) QueryParams {
	return QueryParams{
		Kind:      kind,
		TimeRange: tr,
		Page:      1,
		PageSize:  DefaultPageSize,
	}
}

// WithPage returns a copy pointing at another page.
func (p QueryParams) WithPage(page int) QueryParams {
	p.Page = page
	return p
}

// Validate enforces the descriptor invariants.
func (p QueryParams) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownQueryKind, p.Kind)
	}
	if err := p.TimeRange.Validate(); err != nil {
		return err
	}
	if p.Page < 1 {
		return ErrInvalidPage
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	if p.Interval < 0 {
		return ErrInvalidInterval
	}

	switch p.Kind.FilterField() {
	case ParamIPAddress:
		if strings.TrimSpace(p.IPAddress) == "" {
			return fmt.Errorf("%w: %s", ErrMissingQueryField, ParamIPAddress)
		}
		if !IsValidIPOrCIDR(p.IPAddress) {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, p.IPAddress)
		}
	case ParamProtocol:
		if strings.TrimSpace(p.Protocol) == "" {
			return fmt.Errorf("%w: %s", ErrMissingQueryField, ParamProtocol)
		}
	case ParamPort:
		if p.Port == 0 {
			return fmt.Errorf("%w: %s", ErrMissingQueryField, ParamPort)
		}
		if !IsValidPort(p.Port) {
			return ErrInvalidPort
		}
	case ParamRegion:
		if strings.TrimSpace(p.Region) == "" {
			return fmt.Errorf("%w: %s", ErrMissingQueryField, ParamRegion)
		}
	}
	return nil
}

// CacheKey identifies the request for deduplication: kind plus every parameter.
func (p QueryParams) CacheKey() string {
	return string(p.Kind) + "?" + p.Values().Encode()
}

// Params returns the raw parameter map. Fields that do not apply are "".
func (p QueryParams) Params() map[string]any {
	params := map[string]any{
		ParamPage:      p.Page,
		ParamPageSize:  p.PageSize,
		ParamStart:     p.TimeRange.Start,
		ParamEnd:       p.TimeRange.End,
		ParamProtocol:  p.Protocol,
		ParamIPAddress: p.IPAddress,
		ParamRegion:    p.Region,
		ParamPort:      "",
		ParamInterval:  "",
	}
	if p.Port != 0 {
		params[ParamPort] = p.Port
	}
	if p.Interval != 0 {
		params[ParamInterval] = p.Interval
	}
	return params
}

// Values renders the cleaned query string.
func (p QueryParams) Values() url.Values {
	return EncodeParams(CleanParams(p.Params()))
}

// CleanParams drops every key whose value is the empty string. All other
// values, including 0 and false, are kept as they are.
func CleanParams(params map[string]any) map[string]any {
	cleaned := make(map[string]any, len(params))
	for k, v := range params {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		cleaned[k] = v
	}
	return cleaned
}

// EncodeParams formats a parameter map as a query string. Keys are sorted so
// the encoding is stable.
func EncodeParams(params map[string]any) url.Values {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(url.Values, len(params))
	for _, k := range keys {
		values.Set(k, formatParam(params[k]))
	}
	return values
}

func formatParam(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
