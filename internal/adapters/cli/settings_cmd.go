package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/reporting"
)

// --- Interfaces ---

func (r *Runner) runInterfaces(ctx context.Context, args []string) error {
	fs := r.flagSet("interfaces")
	sel := fs.String("select", "", "Interface to capture on")
	if err := r.parse(fs, args); err != nil {
		return err
	}

	if *sel != "" {
		if _, err := r.svc.Settings.SelectInterface(ctx, *sel); err != nil {
			return err
		}
	}
	ifaces, err := r.svc.Settings.Interfaces(ctx)
	if err != nil {
		return err
	}
	return r.print(ifaces)
}

// --- Rules ---

type ruleOutput struct {
	Protocol string   `json:"protocol"`
	Ports    []int    `json:"ports"`
	Labels   []string `json:"labels"`
}

// portLabel names a port the way packet tools print it, e.g. "443(https)".
func portLabel(p int) string {
	if !domain.IsValidPort(p) {
		return strconv.Itoa(p)
	}
	return layers.TCPPort(p).String()
}

func (r *Runner) printRules(rules domain.RuleSet) error {
	out := make([]ruleOutput, 0, len(rules.Rules))
	for _, rule := range rules.Rules {
		ro := ruleOutput{Protocol: rule.Protocol, Ports: rule.Ports, Labels: make([]string, 0, len(rule.Ports))}
		for _, p := range rule.Ports {
			ro.Labels = append(ro.Labels, portLabel(p))
		}
		out = append(out, ro)
	}
	return r.print(map[string]any{"rules": out})
}

func (r *Runner) runRules(ctx context.Context, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	fs := r.flagSet("rules " + action)
	protocol := fs.String("protocol", "", "Protocol name")
	portList := fs.String("ports", "", "Comma separated ports, e.g. 80,8080")
	if err := r.parse(fs, args); err != nil {
		return err
	}

	var (
		rules domain.RuleSet
		err   error
	)
	switch action {
	case "list":
		rules, err = r.svc.Settings.Rules(ctx)
	case "set":
		ports, perr := parsePorts(*portList)
		if perr != nil {
			return perr
		}
		rules, err = r.svc.Settings.SaveRule(ctx, domain.ProtocolPortRule{Protocol: *protocol, Ports: ports})
	case "delete":
		rules, err = r.svc.Settings.DeleteRule(ctx, *protocol)
	default:
		return fmt.Errorf("%w: rules list|set|delete", ErrUsage)
	}
	if err != nil {
		return err
	}
	return r.printRules(rules)
}

// --- Filters ---

type filtersOutput struct {
	Filters []domain.CaptureFilter `json:"filters"`
	BPF     string                 `json:"bpf"`
}

func (r *Runner) printFilters(filters []domain.CaptureFilter) error {
	if filters == nil {
		filters = []domain.CaptureFilter{}
	}
	return r.print(filtersOutput{Filters: filters, BPF: r.svc.Settings.Preview(filters)})
}

func (r *Runner) runFilters(ctx context.Context, args []string) error {
	action := "list"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	fs := r.flagSet("filters " + action)
	srcIP := fs.String("src-ip", "", "Source address or CIDR")
	dstIP := fs.String("dst-ip", "", "Destination address or CIDR")
	srcPorts := fs.String("src-port", "", "Comma separated source ports")
	dstPorts := fs.String("dst-port", "", "Comma separated destination ports")
	protocol := fs.String("protocol", "", "tcp, udp, icmp or all")
	exclude := fs.Bool("exclude", false, "Drop matching traffic instead of keeping it")
	outbound := fs.Bool("outbound", false, "Match outbound traffic")
	index := fs.Int("index", -1, "Filter position for remove")
	if err := r.parse(fs, args); err != nil {
		return err
	}

	buildFilter := func() (domain.CaptureFilter, error) {
		sp, err := parsePorts(*srcPorts)
		if err != nil {
			return domain.CaptureFilter{}, err
		}
		dp, err := parsePorts(*dstPorts)
		if err != nil {
			return domain.CaptureFilter{}, err
		}
		f := domain.NewCaptureFilter().
			WithSource(*srcIP, sp...).
			WithDestination(*dstIP, dp...).
			WithProtocol(domain.Protocol(*protocol))
		if *exclude {
			f.Excluding()
		}
		if *outbound {
			f.Outbound()
		}
		return *f, f.Validate()
	}

	var (
		filters []domain.CaptureFilter
		err     error
	)
	switch action {
	case "list":
		filters, err = r.svc.Settings.Filters(ctx)
	case "add":
		f, ferr := buildFilter()
		if ferr != nil {
			return ferr
		}
		filters, err = r.svc.Settings.AddFilter(ctx, f)
	case "remove":
		filters, err = r.svc.Settings.RemoveFilter(ctx, *index)
	case "clear":
		filters, err = r.svc.Settings.ReplaceFilters(ctx, []domain.CaptureFilter{})
	case "preview":
		// Offline: shows the expression the current form would add
		f, ferr := buildFilter()
		if ferr != nil {
			return ferr
		}
		return r.printFilters([]domain.CaptureFilter{f})
	case "cached":
		snap, ok, cerr := r.svc.Settings.Cached(ctx)
		if cerr != nil {
			return cerr
		}
		if !ok {
			return r.printFilters(nil)
		}
		return r.printFilters(snap.Filters)
	default:
		return fmt.Errorf("%w: filters list|add|remove|clear|preview|cached", ErrUsage)
	}
	if err != nil {
		return err
	}
	return r.printFilters(filters)
}

// --- Capture ---

func (r *Runner) runCapture(ctx context.Context, args []string) error {
	action := "status"
	if len(args) > 0 {
		action = args[0]
	}
	switch action {
	case "start":
		ack, err := r.svc.Capture.StartCapture(ctx)
		if err != nil {
			return err
		}
		return r.print(ack)
	case "stop":
		ack, err := r.svc.Capture.StopCapture(ctx)
		if err != nil {
			return err
		}
		return r.print(ack)
	case "status":
		st, err := r.svc.Capture.CaptureStatus(ctx)
		if err != nil {
			return err
		}
		return r.print(st)
	}
	return fmt.Errorf("%w: capture start|stop|status", ErrUsage)
}

// --- Report ---

func (r *Runner) runReport(ctx context.Context, args []string) error {
	var rng rangeFlags
	fs := r.flagSet("report")
	rng.register(fs)
	out := fs.String("out", "traffic-report.pdf", "Output file")
	title := fs.String("title", "", "Report title")
	top := fs.Int("top", reporting.DefaultTopSources, "Top sources to rank")
	records := fs.Bool("records", false, "Append the first page of raw records")
	if err := r.parse(fs, args); err != nil {
		return err
	}

	tr, err := rng.resolve(r.now())
	if err != nil {
		return err
	}

	opts := reporting.ReportOptions{Title: *title, TopSources: *top, IncludeRecords: *records}
	if st, err := r.svc.Auth.Status(ctx); err == nil && st.User != nil {
		opts.GeneratedBy = st.User.Username
	}

	doc, err := r.svc.Reports.Render(ctx, tr, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, doc, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.logger.Info("Report written", "path", *out, "bytes", len(doc))
	return r.print(map[string]any{"path": *out, "bytes": len(doc)})
}
