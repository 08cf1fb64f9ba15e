package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/telemetry"
)

var ErrEmptyResult = errors.New("query returned no data")

// Result is one decoded page together with its navigation state.
type Result[T any] struct {
	Page domain.Page[T]  `json:"page"`
	Info domain.PageInfo `json:"info"`
}

// Items returns the page's data.
func (r Result[T]) Items() []T {
	return r.Page.Data
}

// Service runs analytics queries against the backend.
type Service struct {
	api     ports.QueryAPI
	tracker *Tracker
	logger  *slog.Logger
}

// NewService creates a query service.
func NewService(api ports.QueryAPI) *Service {
	return &Service{
		api:     api,
		tracker: NewTracker(),
		logger:  slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (s *Service) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Tracker exposes the generation tracker.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Fetch runs one query under the logical key view (the kind when empty).
// A response overtaken by a newer request for the same key is dropped
// with domain.ErrStaleResponse.
func Fetch[T any](ctx context.Context, s *Service, view string, params domain.QueryParams) (Result[T], error) {
	if err := params.Validate(); err != nil {
		return Result[T]{}, err
	}
	if view == "" {
		view = string(params.Kind)
	}

	raw, err := s.run(ctx, view, params)
	if err != nil {
		return Result[T]{}, err
	}

	var page domain.Page[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return Result[T]{}, fmt.Errorf("decode %s page: %w", params.Kind, err)
	}
	if page.Page == 0 {
		page.Page = params.Page
	}
	if page.PageSize == 0 {
		page.PageSize = params.PageSize
	}
	if err := page.Validate(); err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Page: page, Info: page.Info()}, nil
}

// Raw runs one query and returns the undecoded envelope.
func (s *Service) Raw(ctx context.Context, view string, params domain.QueryParams) (json.RawMessage, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if view == "" {
		view = string(params.Kind)
	}
	return s.run(ctx, view, params)
}

func (s *Service) run(ctx context.Context, view string, params domain.QueryParams) (json.RawMessage, error) {
	reqCtx, ticket := s.tracker.Begin(ctx, view)
	defer s.tracker.Done(ticket)

	s.logger.Debug("Running query", "view", view, "kind", params.Kind, "page", params.Page, "generation", ticket.Gen)
	raw, err := s.api.Query(reqCtx, params)

	if !s.tracker.Current(ticket) {
		telemetry.StaleResponses.WithLabelValues(string(params.Kind)).Inc()
		s.logger.Debug("Dropping stale response", "view", view, "generation", ticket.Gen)
		return nil, domain.ErrStaleResponse
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Records pages raw packet records for the record-returning kinds.
func (s *Service) Records(ctx context.Context, params domain.QueryParams) (Result[domain.PacketRecord], error) {
	if !params.Kind.ReturnsRecords() {
		return Result[domain.PacketRecord]{}, fmt.Errorf("%w: %s does not return packet records", domain.ErrUnknownQueryKind, params.Kind)
	}
	return Fetch[domain.PacketRecord](ctx, s, "", params)
}

// TrafficSummary returns the headline totals over tr.
func (s *Service) TrafficSummary(ctx context.Context, tr domain.TimeRange) (domain.TrafficSummary, error) {
	res, err := Fetch[domain.TrafficSummary](ctx, s, "", domain.NewQueryParams(domain.QueryTrafficSummary, tr))
	if err != nil {
		return domain.TrafficSummary{}, err
	}
	return first(res)
}

// ProtocolDistribution returns the per-protocol shares over tr.
func (s *Service) ProtocolDistribution(ctx context.Context, tr domain.TimeRange) (domain.ProtocolDistribution, error) {
	res, err := Fetch[domain.ProtocolDistribution](ctx, s, "", domain.NewQueryParams(domain.QueryProtocolDistribution, tr))
	if err != nil {
		return domain.ProtocolDistribution{}, err
	}
	return first(res)
}

// TimeSeries buckets tr into intervals of the given seconds. Zero lets the
// backend choose.
func (s *Service) TimeSeries(ctx context.Context, tr domain.TimeRange, interval int) (Result[domain.TimeSeriesPoint], error) {
	params := domain.NewQueryParams(domain.QueryTimeSeries, tr)
	params.Interval = interval
	params.PageSize = domain.MaxPageSize
	return Fetch[domain.TimeSeriesPoint](ctx, s, "", params)
}

// ProtocolAnalysis aggregates per protocol, or one protocol when named.
func (s *Service) ProtocolAnalysis(ctx context.Context, tr domain.TimeRange, protocol string) (Result[domain.ProtocolAnalysis], error) {
	params := domain.NewQueryParams(domain.QueryProtocolAnalysis, tr)
	params.Protocol = protocol
	return Fetch[domain.ProtocolAnalysis](ctx, s, "", params)
}

// TopSourceIPs returns the busiest sources, at most limit of them.
func (s *Service) TopSourceIPs(ctx context.Context, tr domain.TimeRange, limit int) (Result[domain.TopSourceIP], error) {
	params := domain.NewQueryParams(domain.QueryTopSourceIPs, tr)
	if limit > 0 {
		params.PageSize = limit
	}
	return Fetch[domain.TopSourceIP](ctx, s, "", params)
}

func first[T any](res Result[T]) (T, error) {
	var zero T
	if len(res.Page.Data) == 0 {
		return zero, ErrEmptyResult
	}
	return res.Page.Data[0], nil
}
