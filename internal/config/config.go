package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// Config holds all application configuration.
type Config struct {
	APIBaseURL string        `env:"VITE_API_BASE_URL" envDefault:"http://localhost:8000"`
	AppName    string        `env:"VITE_APP_NAME" envDefault:"Traffic Dashboard"`
	DBPath     string        `env:"TRAFFICDASH_DB"`
	Timeout    time.Duration `env:"TRAFFICDASH_TIMEOUT" envDefault:"10s"`
	Ephemeral  bool          `env:"TRAFFICDASH_EPHEMERAL"` // keep the session in memory only
	Debug      bool          `env:"TRAFFICDASH_DEBUG"`
	Trace      bool          `env:"TRAFFICDASH_TRACE"`

	// Mock backend
	MockAddr   string `env:"TRAFFICDASH_MOCK_ADDR" envDefault:":8000"`
	MockSecret string `env:"TRAFFICDASH_MOCK_SECRET" envDefault:"change-me"`
	MockSeed   int64  `env:"TRAFFICDASH_MOCK_SEED" envDefault:"1"`
	MockUser   string `env:"TRAFFICDASH_MOCK_USER"` // "name:password" seeded at start
}

// Load reads environment variables, then parses the global flags in args.
// Flags take precedence over environment variables. It returns the
// arguments left after the flags (the subcommand and its own flags).
func Load(name string, args []string) (*Config, []string, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = getDefaultDBPath()
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "Traffic backend base URL")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the local session database")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	fs.BoolVar(&cfg.Ephemeral, "ephemeral", cfg.Ephemeral, "Keep the session in memory only")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.Trace, "trace", cfg.Trace, "Write OpenTelemetry spans to stderr")
	fs.StringVar(&cfg.MockAddr, "addr", cfg.MockAddr, "Mock backend listen address")
	fs.StringVar(&cfg.MockSecret, "secret", cfg.MockSecret, "Mock backend token signing secret")
	fs.Int64Var(&cfg.MockSeed, "seed", cfg.MockSeed, "Mock backend data generator seed")
	fs.StringVar(&cfg.MockUser, "user", cfg.MockUser, "Mock backend user to seed, as name:password")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("api base url must be http or https: %q", c.APIBaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// MockCredentials splits MockUser into name and password.
func (c *Config) MockCredentials() (string, string, bool) {
	name, password, ok := strings.Cut(c.MockUser, ":")
	if !ok || name == "" {
		return "", "", false
	}
	return name, password, true
}

// LogLevel maps the debug flag onto slog levels.
func (c *Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Warn("Could not get user home directory, using current dir", "error", err)
		return "trafficdash.db"
	}

	dir := filepath.Join(home, ".trafficdash")
	if err := os.MkdirAll(dir, 0700); err != nil {
		slog.Warn("Could not create .trafficdash directory, using current dir", "error", err)
		return "trafficdash.db"
	}

	return filepath.Join(dir, "session.db")
}
