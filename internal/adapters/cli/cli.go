// Package cli is the command-line front end of the traffic dashboard. Each
// subcommand maps onto one dashboard view or action and prints JSON on stdout.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/auth"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/export"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/query"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/reporting"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/settings"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage error")

// Services are the components the commands drive.
type Services struct {
	Auth     *auth.AuthService
	Query    *query.Service
	Settings *settings.SettingsService
	Capture  ports.CaptureAPI
	Reports  *reporting.ReportGenerator

	// Navigator is optional; status reports its last route when set.
	Navigator *Navigator
}

// Runner dispatches subcommands.
type Runner struct {
	svc     Services
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	now     func() time.Time
	version string

	commands map[string]command
}

type command struct {
	summary string
	run     func(ctx context.Context, args []string) error
}

// NewRunner wires the command table.
func NewRunner(svc Services, stdout, stderr io.Writer, version string) *Runner {
	r := &Runner{
		svc:     svc,
		stdout:  stdout,
		stderr:  stderr,
		logger:  slog.Default(),
		now:     time.Now,
		version: version,
	}
	r.commands = map[string]command{
		"login":      {"Log in and store the session", r.runLogin},
		"signup":     {"Create an account and store the session", r.runSignup},
		"logout":     {"End the session", r.runLogout},
		"refresh":    {"Refresh the access token", r.runRefresh},
		"status":     {"Show the stored session", r.runStatus},
		"query":      {"Run a traffic query (query <kind>)", r.runQuery},
		"kinds":      {"List query kinds", r.runKinds},
		"interfaces": {"List or select capture interfaces", r.runInterfaces},
		"rules":      {"List, set or delete protocol-port rules", r.runRules},
		"filters":    {"List, add, remove or preview capture filters", r.runFilters},
		"capture":    {"Start, stop or inspect the capture", r.runCapture},
		"report":     {"Write a PDF traffic report", r.runReport},
		"version":    {"Print the version", r.runVersion},
	}
	return r
}

// SetLogger replaces the default logger.
func (r *Runner) SetLogger(l *slog.Logger) {
	r.logger = l
}

// Run executes one subcommand.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" {
		r.usage()
		if len(args) == 0 {
			return fmt.Errorf("%w: no command given", ErrUsage)
		}
		return nil
	}
	cmd, ok := r.commands[args[0]]
	if !ok {
		r.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	return cmd.run(ctx, args[1:])
}

func (r *Runner) usage() {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.stderr, "Usage: trafficdash [global flags] <command> [flags]")
	fmt.Fprintln(r.stderr, "\nCommands:")
	for _, name := range names {
		fmt.Fprintf(r.stderr, "  %-12s %s\n", name, r.commands[name].summary)
	}
}

func (r *Runner) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

func (r *Runner) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (r *Runner) print(v any) error {
	return export.ExportJSON(r.stdout, v)
}

func (r *Runner) runVersion(_ context.Context, _ []string) error {
	return r.print(map[string]string{"version": r.version})
}

// rangeFlags holds the -since/-start/-end triple shared by query commands.
type rangeFlags struct {
	since time.Duration
	start string
	end   string
}

func (f *rangeFlags) register(fs *flag.FlagSet) {
	fs.DurationVar(&f.since, "since", time.Hour, "Range ending now, ignored when -start is set")
	fs.StringVar(&f.start, "start", "", "Range start, RFC 3339 or unix seconds")
	fs.StringVar(&f.end, "end", "", "Range end, RFC 3339 or unix seconds (default now)")
}

func (f *rangeFlags) resolve(now time.Time) (domain.TimeRange, error) {
	end := now
	if f.end != "" {
		t, err := parseTime(f.end)
		if err != nil {
			return domain.TimeRange{}, fmt.Errorf("%w: -end: %v", ErrUsage, err)
		}
		end = t
	}
	start := end.Add(-f.since)
	if f.start != "" {
		t, err := parseTime(f.start)
		if err != nil {
			return domain.TimeRange{}, fmt.Errorf("%w: -start: %v", ErrUsage, err)
		}
		start = t
	}
	tr := domain.NewTimeRange(start, end)
	return tr, tr.Validate()
}

func parseTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.UnixMilli(int64(secs * 1000)).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

// parsePorts reads a comma separated port list such as "80,443".
func parsePorts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ports []int
	for _, part := range strings.Split(s, ",") {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: bad port %q", ErrUsage, part)
		}
		ports = append(ports, p)
	}
	return ports, nil
}
