package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTimeout = 10 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Client is the authenticated request client for the traffic backend.
// It attaches the session's bearer token to every request, normalizes
// failures into *domain.APIError and makes one refresh attempt when the
// backend answers 401.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	session   ports.SessionContext
	refresher Refresher
	logger    *slog.Logger
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used as is
// and the client itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout, whatever the order of options.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRefresher replaces the 401 refresh step.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, session ports.SessionContext, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https: %q", baseURL)
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		session: session,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	if c.refresher == nil {
		c.refresher = NewSessionRefresher(session)
	}
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, body, out)
}

// Do runs one request through the interceptor chain. out may be nil, a
// *json.RawMessage, or any JSON-decodable pointer.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	req = c.AttachAuthHeader(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.onError(ctx, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.onError(ctx, path, err)
	}
	telemetry.APIRequests.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()

	if err := c.onResponse(ctx, path, req, resp, payload); err != nil {
		return err
	}
	return decode(payload, out)
}

// AttachAuthHeader sets "Authorization: Bearer <token>" when the session
// holds an access token. Without one the request goes out anonymous.
func (c *Client) AttachAuthHeader(ctx context.Context, req *http.Request) *http.Request {
	token, err := c.session.AccessToken(ctx)
	if err != nil {
		c.logger.Warn("Could not read access token, sending anonymous request", "error", err)
		return req
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// onResponse turns non-2xx answers into *domain.APIError. A 401 first gets a
// single refresh attempt; the 401 is returned whatever the refresh outcome.
// A 401 from a credential endpoint rejects the credentials, not the session,
// so it never touches the stored tokens.
func (c *Client) onResponse(ctx context.Context, path string, req *http.Request, resp *http.Response, payload []byte) error {
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("Unauthorized request", "method", req.Method, "path", req.URL.Path)
		if !isCredentialPath(path) {
			c.refreshOnce(ctx)
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return domain.NewAPIError(resp.StatusCode, errorMessage(resp, payload))
}

// onError maps failures where no response arrived. Cancellation by the
// caller is returned raw so callers can tell it apart from a dead backend.
func (c *Client) onError(ctx context.Context, path string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", path, ctx.Err())
	}
	telemetry.APIRequests.WithLabelValues(path, "error").Inc()

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		c.logger.Debug("Transport failure", "path", path, "error", err)
		return domain.NewTransportError(err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

func isCredentialPath(path string) bool {
	switch path {
	case PathLogin, PathSignup, PathRefresh:
		return true
	}
	return false
}

func (c *Client) refreshOnce(ctx context.Context) {
	err := c.refresher.Refresh(ctx)
	switch {
	case err == nil:
		telemetry.RefreshAttempts.WithLabelValues("ok").Inc()
		c.logger.Info("Session refreshed")
	case errors.Is(err, domain.ErrNoRefreshToken):
		telemetry.RefreshAttempts.WithLabelValues("no_refresh_token").Inc()
		c.logger.Warn("Session expired and no refresh token is stored, discarding session")
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			c.logger.Error("Failed to clear session", "error", clearErr)
		}
	case errors.Is(err, domain.ErrRefreshNotImplemented):
		telemetry.RefreshAttempts.WithLabelValues("not_implemented").Inc()
		c.logger.Warn("Token refresh is not available", "error", err)
	default:
		telemetry.RefreshAttempts.WithLabelValues("error").Inc()
		c.logger.Warn("Token refresh failed", "error", err)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decode(payload []byte, out any) error {
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the server's message. JSON bodies of the form
// {"detail": ...} or {"message": ...} yield that field, anything else the
// body text, and an empty body the status text.
func errorMessage(resp *http.Response, payload []byte) string {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(payload, &body) == nil {
		if len(body.Detail) > 0 {
			var s string
			if json.Unmarshal(body.Detail, &s) == nil {
				return s
			}
			return string(body.Detail)
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return text
}
