package mockbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options configures a mock backend.
type Options struct {
	Addr       string
	Secret     string
	Seed       int64
	Records    int           // generated packet records, default 5000
	Span       time.Duration // how far back records reach, default 24h
	Now        time.Time     // end of the generated span, default time.Now
	LoginLimit int           // login requests per minute and client, default 20
	HashCost   int           // bcrypt cost, 0 for the default
}

// Server is a stand-in for the traffic backend. It serves the same HTTP
// surface over generated records.
type Server struct {
	Addr   string
	Users  *UserStore
	Tokens *TokenIssuer
	Data   *Dataset
	Config *ConfigState

	loginLimiter *RateLimiter
	now          func() time.Time
	logger       *slog.Logger
	srv          *http.Server
}

// NewServer generates the dataset and wires the stores.
func NewServer(opts Options) *Server {
	if opts.Records <= 0 {
		opts.Records = 5000
	}
	if opts.Span <= 0 {
		opts.Span = 24 * time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.LoginLimit <= 0 {
		opts.LoginLimit = 20
	}

	gen := NewDataGenerator(opts.Seed)
	users := NewUserStore()
	if opts.HashCost > 0 {
		users.SetHashCost(opts.HashCost)
	}

	return &Server{
		Addr:         opts.Addr,
		Users:        users,
		Tokens:       NewTokenIssuer(opts.Secret),
		Data:         NewDataset(gen.Generate(opts.Records, opts.Now, opts.Span)),
		Config:       NewConfigState(gen.Interfaces(), gen.DefaultRules()),
		loginLimiter: NewRateLimiter(opts.LoginLimit, time.Minute),
		now:          time.Now,
		logger:       slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
}

// SeedUser registers a user at startup.
func (s *Server) SeedUser(creds domain.Credentials) error {
	if err := s.Users.Register(creds); err != nil && !errors.Is(err, ErrUserExists) {
		return err
	}
	return nil
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	protect := func(h http.HandlerFunc) http.Handler {
		return s.requireAuth(h)
	}
	limit := RateLimitMiddleware(s.loginLimiter)

	// Public API
	r.Handle("/auth/login", limit(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	r.Handle("/auth/token", limit(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	r.Handle("/auth/signup", limit(http.HandlerFunc(s.handleSignup))).Methods(http.MethodPost)
	r.Handle("/auth/register", limit(http.HandlerFunc(s.handleSignup))).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	// Protected API
	r.Handle("/auth/logout", protect(s.handleLogout)).Methods(http.MethodPost)
	r.Handle("/auth/me", protect(s.handleMe)).Methods(http.MethodGet)

	r.Handle("/query/{kind}", protect(s.handleQuery)).Methods(http.MethodGet)

	r.Handle("/config/interfaces", protect(s.handleGetInterfaces)).Methods(http.MethodGet)
	r.Handle("/config/interfaces", protect(s.handleSetInterface)).Methods(http.MethodPost)
	r.Handle("/config/rules", protect(s.handleGetRules)).Methods(http.MethodGet)
	r.Handle("/config/rules", protect(s.handleUpsertRule)).Methods(http.MethodPost)
	r.Handle("/config/rules", protect(s.handleRemoveRule)).Methods(http.MethodDelete)
	r.Handle("/config/filter", protect(s.handleGetFilters)).Methods(http.MethodGet)
	r.Handle("/config/filter", protect(s.handleSetFilters)).Methods(http.MethodPost)

	r.Handle("/capture/start", protect(s.handleCaptureStart)).Methods(http.MethodPost)
	r.Handle("/capture/stop", protect(s.handleCaptureStop)).Methods(http.MethodPost)
	r.Handle("/capture/status", protect(s.handleCaptureStatus)).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Router(), "trafficdash-mock")
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		s.logger.Info("Mock backend shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Mock backend shutdown error", "error", err)
		}
	}()

	s.logger.Info("Mock backend listening", "addr", s.Addr, "records", s.Data.Len())
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
