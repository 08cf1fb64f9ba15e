package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lcalzada-xor/trafficdash/internal/adapters/apiclient"
	"github.com/lcalzada-xor/trafficdash/internal/adapters/cli"
	"github.com/lcalzada-xor/trafficdash/internal/adapters/mockbackend"
	"github.com/lcalzada-xor/trafficdash/internal/adapters/reporting"
	"github.com/lcalzada-xor/trafficdash/internal/adapters/storage"
	"github.com/lcalzada-xor/trafficdash/internal/config"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/auth"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/query"
	reportsvc "github.com/lcalzada-xor/trafficdash/internal/core/services/reporting"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/session"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/settings"
	"github.com/lcalzada-xor/trafficdash/internal/telemetry"
)

// localStore is the client's persistent area: session keys and the settings cache.
type localStore interface {
	ports.SessionStore
	ports.SettingsCache
	io.Closer
}

// Application holds the core components of the dashboard client.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config  *config.Config
	Store   localStore
	Session *session.Manager
	Client  *apiclient.Client

	AuthService     *auth.AuthService
	QueryService    *query.Service
	SettingsService *settings.SettingsService
	ReportGenerator *reportsvc.ReportGenerator

	Runner *cli.Runner
	logger *slog.Logger
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, stdout, stderr io.Writer, version string) (*Application, error) {
	app := &Application{
		Config: cfg,
		logger: slog.Default(),
	}

	if err := app.bootstrap(stdout, stderr, version); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap(stdout, stderr io.Writer, version string) error {
	// 1. Foundation & Infrastructure
	telemetry.InitMetrics()

	store, err := app.initStorage()
	if err != nil {
		return err
	}
	app.Store = store
	app.Session = session.NewManager(store)

	// 2. Transport
	client, err := apiclient.New(app.Config.APIBaseURL, app.Session,
		apiclient.WithTimeout(app.Config.Timeout),
		apiclient.WithLogger(app.logger),
	)
	if err != nil {
		store.Close()
		return err
	}
	app.Client = client

	// 3. Domain Services
	nav := cli.NewNavigator(store, app.logger)
	app.AuthService = auth.NewAuthService(client, app.Session, nav)
	app.QueryService = query.NewService(client)
	app.SettingsService = settings.NewSettingsService(client, store)
	app.ReportGenerator = reportsvc.NewReportGenerator(app.QueryService, reporting.NewPDFExporter(app.Config.AppName))

	// 4. Front end
	app.Runner = cli.NewRunner(cli.Services{
		Auth:      app.AuthService,
		Query:     app.QueryService,
		Settings:  app.SettingsService,
		Capture:   client,
		Reports:   app.ReportGenerator,
		Navigator: nav,
	}, stdout, stderr, version)
	app.Runner.SetLogger(app.logger)

	return nil
}

func (app *Application) initStorage() (localStore, error) {
	if app.Config.Ephemeral {
		app.logger.Debug("Session kept in memory only")
		return storage.NewMemoryStore(), nil
	}

	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init session storage: %w", err)
	}
	return store, nil
}

// Run executes one command line.
func (app *Application) Run(ctx context.Context, args []string) error {
	return app.Runner.Run(ctx, args)
}

// Close releases the local store.
func (app *Application) Close() error {
	if app.Store == nil {
		return nil
	}
	return app.Store.Close()
}

// NewMockBackend builds the stand-in backend from the mock settings and seeds
// the configured user.
func NewMockBackend(cfg *config.Config) (*mockbackend.Server, error) {
	telemetry.InitMetrics()

	srv := mockbackend.NewServer(mockbackend.Options{
		Addr:   cfg.MockAddr,
		Secret: cfg.MockSecret,
		Seed:   cfg.MockSeed,
	})
	if name, password, ok := cfg.MockCredentials(); ok {
		if err := srv.SeedUser(domain.Credentials{Username: name, Password: password}); err != nil {
			return nil, fmt.Errorf("seed mock user: %w", err)
		}
		slog.Info("Mock user seeded", "username", name)
	}
	return srv, nil
}
