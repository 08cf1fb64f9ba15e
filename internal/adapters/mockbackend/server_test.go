package mockbackend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/adapters/apiclient"
	"github.com/lcalzada-xor/trafficdash/internal/adapters/storage"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/auth"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/query"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/session"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) Navigate(_ context.Context, route string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
	return nil
}

func (r *routeRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

type harness struct {
	backend *Server
	client  *apiclient.Client
	session *session.Manager
	nav     *routeRecorder
	auth    *auth.AuthService
	url     string
}

func newHarness(t *testing.T, records int) *harness {
	t.Helper()
	backend := NewServer(Options{
		Secret:   "test-secret",
		Seed:     3,
		Records:  records,
		Now:      testEnd,
		HashCost: bcrypt.MinCost,
	})
	require.NoError(t, backend.SeedUser(domain.Credentials{Username: "alice", Password: "hunter2"}))

	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	sess := session.NewManager(storage.NewMemoryStore())
	client, err := apiclient.New(ts.URL, sess, apiclient.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	nav := &routeRecorder{}
	return &harness{
		backend: backend,
		client:  client,
		session: sess,
		nav:     nav,
		auth:    auth.NewAuthService(client, sess, nav),
		url:     ts.URL,
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.auth.Login(context.Background(), domain.Credentials{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
}

func fullRange() domain.TimeRange {
	return domain.NewTimeRange(testEnd.Add(-25*time.Hour), testEnd.Add(time.Minute))
}

func TestServer_LoginEstablishesSession(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	tokens, err := h.auth.Login(ctx, domain.Credentials{Username: "alice", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	stored, err := h.session.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, tokens.AccessToken, stored)
	assert.Equal(t, domain.RouteDashboard, h.nav.Last())

	st, err := h.auth.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, "alice", st.User.Username)
}

func TestServer_LoginRejected(t *testing.T) {
	h := newHarness(t, 10)

	_, err := h.auth.Login(context.Background(), domain.Credentials{Username: "alice", Password: "wrong-password"})
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "Incorrect username or password", apiErr.Message)

	tok, _ := h.session.AccessToken(context.Background())
	assert.Empty(t, tok)
}

func TestServer_SignupValidatesForm(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	// Bypass the client-side check to see the backend's answer
	_, err := h.client.Signup(ctx, domain.Credentials{Username: "bob", Password: "short"})
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Code)
	assert.Contains(t, apiErr.Message, "at least 8 characters")

	_, err = h.auth.Signup(ctx, domain.Credentials{Username: "bob", Password: "long-enough"})
	require.NoError(t, err)
	assert.True(t, h.backend.Users.Exists("bob"))

	_, err = h.client.Signup(ctx, domain.Credentials{Username: "bob", Password: "long-enough"})
	apiErr, ok = domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
}

func TestServer_UnauthorizedQuery(t *testing.T) {
	h := newHarness(t, 10)
	svc := query.NewService(h.client)

	_, err := svc.Records(context.Background(), domain.NewQueryParams(domain.QueryByTimeRange, fullRange()))
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)
	assert.Equal(t, "Not authenticated", apiErr.Message)
}

func TestServer_ExpiredTokenClearsSessionWithoutRefreshToken(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	// An access token the backend no longer accepts, with no refresh token
	require.NoError(t, h.session.Save(ctx, domain.TokenPair{AccessToken: "stale.jwt.token"}))

	_, err := h.client.Interfaces(ctx)
	assert.True(t, domain.IsUnauthorized(err))

	tok, _ := h.session.AccessToken(ctx)
	assert.Empty(t, tok)
}

func TestServer_RefreshAndLogout(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()
	h.login(t)

	before, _ := h.session.AccessToken(ctx)
	refreshed, err := h.auth.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	after, _ := h.session.AccessToken(ctx)
	assert.Equal(t, refreshed.AccessToken, after)
	rt, _ := h.session.RefreshToken(ctx)
	assert.NotEmpty(t, rt)

	require.NoError(t, h.auth.Logout(ctx))
	assert.Equal(t, domain.RouteLogin, h.nav.Last())
	tok, _ := h.session.AccessToken(ctx)
	assert.Empty(t, tok)

	// The revoked token is refused by the backend
	_, err = h.backend.Tokens.Validate(after, kindAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = h.backend.Tokens.Validate(before, kindAccess)
	assert.NoError(t, err)
}

func TestServer_RecordPagination(t *testing.T) {
	h := newHarness(t, 250)
	h.login(t)
	ctx := context.Background()
	svc := query.NewService(h.client)

	params := domain.NewQueryParams(domain.QueryByTimeRange, fullRange())
	params.PageSize = 100

	res, err := svc.Records(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, 250, res.Page.Total)
	assert.Len(t, res.Items(), 100)
	assert.True(t, res.Info.HasNext)
	assert.Equal(t, 2, res.Info.NextPage)
	assert.Equal(t, 3, res.Info.TotalPages)

	all, err := query.NewPager[domain.PacketRecord](svc, params).All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 250)

	seen := map[string]bool{}
	for _, r := range all {
		assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
		seen[r.ID] = true
	}
}

func TestServer_FilteredQueries(t *testing.T) {
	h := newHarness(t, 400)
	h.login(t)
	ctx := context.Background()
	svc := query.NewService(h.client)

	params := domain.NewQueryParams(domain.QueryByProtocol, fullRange())
	params.Protocol = "UDP"
	res, err := svc.Records(ctx, params)
	require.NoError(t, err)
	for _, r := range res.Items() {
		assert.Equal(t, "UDP", r.Protocol)
	}
	want := len(h.backend.Data.Filter(RecordFilter{TimeRange: params.TimeRange, Protocol: "UDP"}))
	assert.Equal(t, want, res.Page.Total)

	params = domain.NewQueryParams(domain.QueryByDestinationPort, fullRange())
	params.Port = 443
	res, err = svc.Records(ctx, params)
	require.NoError(t, err)
	for _, r := range res.Items() {
		assert.Equal(t, 443, r.DstPort)
	}
}

func TestServer_Aggregates(t *testing.T) {
	h := newHarness(t, 400)
	h.login(t)
	ctx := context.Background()
	svc := query.NewService(h.client)
	tr := fullRange()

	sum, err := svc.TrafficSummary(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, int64(400), sum.TotalPackets)
	assert.LessOrEqual(t, len(sum.TopSourceIPs), 5)

	dist, err := svc.ProtocolDistribution(ctx, tr)
	require.NoError(t, err)
	assert.NotEmpty(t, dist.Distribution)

	series, err := svc.TimeSeries(ctx, domain.NewTimeRange(testEnd.Add(-time.Hour), testEnd), 600)
	require.NoError(t, err)
	assert.Equal(t, 6, series.Page.Total)

	top, err := svc.TopSourceIPs(ctx, tr, 3)
	require.NoError(t, err)
	assert.Len(t, top.Items(), 3)

	analysis, err := svc.ProtocolAnalysis(ctx, tr, "TCP")
	require.NoError(t, err)
	require.Len(t, analysis.Items(), 1)
	assert.Equal(t, "TCP", analysis.Items()[0].Protocol)
}

func TestServer_QueryValidation(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t)
	ctx := context.Background()
	token, _ := h.session.AccessToken(ctx)

	get := func(path string) (int, string) {
		req, err := http.NewRequest(http.MethodGet, h.url+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &body)
		return resp.StatusCode, body.Detail
	}

	code, _ := get("/query/time?start=1&end=2&page_size=101")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, detail := get("/query/source-ip?start=1&end=2")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, detail, "ip_address")

	code, detail = get("/query/time-series?start=1&end=1e300&interval=1")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, detail, "time range too large")

	// Legacy parameter names are accepted
	code, _ = get("/query/time?start_time=1&end_time=2")
	assert.Equal(t, http.StatusOK, code)

	code, detail = get("/query/nope?start=1&end=2")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Not Found", detail)
}

func TestServer_SettingsRoundTrip(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t)
	ctx := context.Background()
	cache := storage.NewMemoryStore()
	svc := settings.NewSettingsService(h.client, cache)

	ifaces, err := svc.Interfaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, "eth0", ifaces.Selected)

	selected, err := svc.SelectInterface(ctx, "wlan0")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", selected)
	assert.Equal(t, "wlan0", h.backend.Config.Interfaces().Selected)

	rules, err := svc.SaveRule(ctx, domain.ProtocolPortRule{Protocol: "Postgres", Ports: []int{5432}})
	require.NoError(t, err)
	pg, ok := rules.Find("postgres")
	require.True(t, ok)
	assert.Equal(t, []int{5432}, pg.Ports)

	rules, err = svc.DeleteRule(ctx, "postgres")
	require.NoError(t, err)
	_, ok = rules.Find("postgres")
	assert.False(t, ok)

	filters := []domain.CaptureFilter{
		*domain.NewCaptureFilter().WithSource("10.0.0.1").WithDestination("", 443).WithProtocol(domain.ProtocolTCP),
		*domain.NewCaptureFilter().WithDestination("", 53).WithProtocol(domain.ProtocolUDP).Excluding(),
	}
	saved, err := svc.ReplaceFilters(ctx, filters)
	require.NoError(t, err)
	assert.Equal(t, filters, saved)

	loaded, err := svc.Filters(ctx)
	require.NoError(t, err)
	assert.Equal(t, filters, loaded)

	snap, ok, err := cache.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filters, snap.Filters)
}

func TestServer_SettingsRejections(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t)
	ctx := context.Background()

	_, err := h.client.SelectInterface(ctx, "eth9")
	apiErr, ok := domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, "Failed to set interface", apiErr.Message)

	_, err = h.client.DeleteRule(ctx, domain.ProtocolPortRule{Protocol: "gopher"})
	apiErr, ok = domain.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Failed to remove rule", apiErr.Message)
}

func TestServer_Capture(t *testing.T) {
	h := newHarness(t, 10)
	h.login(t)
	ctx := context.Background()

	st, err := h.client.CaptureStatus(ctx)
	require.NoError(t, err)
	assert.False(t, st.Running)

	ack, err := h.client.StartCapture(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureStarted, ack.Status)

	ack, err = h.client.StartCapture(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureAlreadyStarted, ack.Status)

	st, err = h.client.CaptureStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, "eth0", st.Metrics["interface"])

	ack, err = h.client.StopCapture(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.CaptureStopped, ack.Status)
}

func TestServer_MetricsAndNotFound(t *testing.T) {
	h := newHarness(t, 10)

	resp, err := http.Get(h.url + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))

	resp, err = http.Get(h.url + "/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
