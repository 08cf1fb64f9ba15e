package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/export"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/query"
)

type queryOutput[T any] struct {
	Kind   domain.QueryKind `json:"kind"`
	Params string           `json:"params"`
	query.Result[T]
}

type allOutput[T any] struct {
	Kind  domain.QueryKind `json:"kind"`
	Pages int              `json:"pages"`
	Data  []T              `json:"data"`
}

type queryFlags struct {
	rng      rangeFlags
	page     int
	pageSize int
	ip       string
	protocol string
	port     int
	region   string
	interval int
	all      bool
	maxPages int
	format   string
}

func (r *Runner) runQuery(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: query needs a kind, see 'trafficdash kinds'", ErrUsage)
	}
	kind, err := domain.ParseQueryKind(args[0])
	if err != nil {
		return err
	}

	var qf queryFlags
	fs := r.flagSet("query " + string(kind))
	qf.rng.register(fs)
	fs.IntVar(&qf.page, "page", 1, "Page number")
	fs.IntVar(&qf.pageSize, "page-size", domain.DefaultPageSize, "Records per page (1-100)")
	fs.StringVar(&qf.ip, "ip", "", "Source address or CIDR (source-ip)")
	fs.StringVar(&qf.protocol, "protocol", "", "Protocol name (protocol, protocol-analysis)")
	fs.IntVar(&qf.port, "port", 0, "Destination port (port)")
	fs.StringVar(&qf.region, "region", "", "Source region (region)")
	fs.IntVar(&qf.interval, "interval", 0, "Bucket width in seconds (time-series)")
	fs.BoolVar(&qf.all, "all", false, "Follow every following page")
	fs.IntVar(&qf.maxPages, "max-pages", 0, "Stop -all after this many pages (0 = no cap)")
	fs.StringVar(&qf.format, "format", "json", "Output format: json or csv")
	if err := r.parse(fs, args[1:]); err != nil {
		return err
	}

	tr, err := qf.rng.resolve(r.now())
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(qf.format)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	params := domain.NewQueryParams(kind, tr)
	params.Page = qf.page
	params.PageSize = qf.pageSize
	params.IPAddress = qf.ip
	params.Protocol = qf.protocol
	params.Port = qf.port
	params.Region = qf.region
	params.Interval = qf.interval
	if err := params.Validate(); err != nil {
		return err
	}
	r.logger.Debug("Running query", "kind", kind, "params", params.Values().Encode())

	switch {
	case kind.ReturnsRecords():
		return runKind(ctx, r, params, qf, format, export.ExportRecordsCSV)
	case kind == domain.QueryTimeSeries:
		return runKind(ctx, r, params, qf, format, export.ExportTimeSeriesCSV)
	case kind == domain.QueryTrafficSummary:
		return runKind[domain.TrafficSummary](ctx, r, params, qf, format, nil)
	case kind == domain.QueryProtocolDistribution:
		return runKind[domain.ProtocolDistribution](ctx, r, params, qf, format, nil)
	case kind == domain.QueryProtocolAnalysis:
		return runKind[domain.ProtocolAnalysis](ctx, r, params, qf, format, nil)
	default:
		return runKind[domain.TopSourceIP](ctx, r, params, qf, format, nil)
	}
}

// runKind fetches one page, or every page with -all, and prints it. Kinds
// without a CSV writer refuse -format csv.
func runKind[T any](ctx context.Context, r *Runner, params domain.QueryParams, qf queryFlags, format export.Format, csv func(w io.Writer, items []T) error) error {
	if format == export.FormatCSV && csv == nil {
		return fmt.Errorf("%w: %s has no csv output", ErrUsage, params.Kind)
	}

	if qf.all {
		pager := query.NewPager[T](r.svc.Query, params, query.WithMaxPages(qf.maxPages))
		items, err := pager.All(ctx)
		if err != nil {
			return err
		}
		if format == export.FormatCSV {
			return csv(r.stdout, items)
		}
		if items == nil {
			items = []T{}
		}
		return r.print(allOutput[T]{Kind: params.Kind, Pages: pageCount(len(items), params.PageSize), Data: items})
	}

	res, err := query.Fetch[T](ctx, r.svc.Query, "", params)
	if err != nil {
		return err
	}
	if format == export.FormatCSV {
		return csv(r.stdout, res.Items())
	}
	return r.print(queryOutput[T]{Kind: params.Kind, Params: params.Values().Encode(), Result: res})
}

func pageCount(items, size int) int {
	if size <= 0 || items == 0 {
		return 0
	}
	return (items + size - 1) / size
}

func (r *Runner) runKinds(_ context.Context, _ []string) error {
	type kindInfo struct {
		Kind     domain.QueryKind `json:"kind"`
		Endpoint string           `json:"endpoint"`
		Requires string           `json:"requires,omitempty"`
		Records  bool             `json:"records"`
	}
	out := make([]kindInfo, 0, len(domain.QueryKinds))
	for _, k := range domain.QueryKinds {
		out = append(out, kindInfo{Kind: k, Endpoint: k.Endpoint(), Requires: k.FilterField(), Records: k.ReturnsRecords()})
	}
	return r.print(out)
}
