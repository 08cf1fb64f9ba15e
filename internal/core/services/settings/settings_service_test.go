package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockConfigAPI
type MockConfigAPI struct {
	mock.Mock
}

func (m *MockConfigAPI) Interfaces(ctx context.Context) (domain.NetworkInterfaces, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.NetworkInterfaces), args.Error(1)
}

func (m *MockConfigAPI) SelectInterface(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *MockConfigAPI) Rules(ctx context.Context) (domain.RuleSet, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RuleSet), args.Error(1)
}

func (m *MockConfigAPI) SaveRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error) {
	args := m.Called(ctx, rule)
	return args.Get(0).(domain.RuleSet), args.Error(1)
}

func (m *MockConfigAPI) DeleteRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error) {
	args := m.Called(ctx, rule)
	return args.Get(0).(domain.RuleSet), args.Error(1)
}

func (m *MockConfigAPI) Filters(ctx context.Context) ([]domain.CaptureFilter, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaptureFilter), args.Error(1)
}

func (m *MockConfigAPI) SaveFilters(ctx context.Context, filters []domain.CaptureFilter) ([]domain.CaptureFilter, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CaptureFilter), args.Error(1)
}

type memCache struct {
	snap  ports.SettingsSnapshot
	ok    bool
	saves int
}

func (c *memCache) SaveSnapshot(_ context.Context, snap ports.SettingsSnapshot) error {
	c.snap, c.ok = snap, true
	c.saves++
	return nil
}

func (c *memCache) LoadSnapshot(context.Context) (ports.SettingsSnapshot, bool, error) {
	return c.snap, c.ok, nil
}

var (
	webFilter = domain.CaptureFilter{
		SrcIP:     "10.0.0.1",
		DstPort:   []int{443},
		Protocol:  domain.ProtocolTCP,
		Operation: domain.OperationInclude,
		Direction: domain.DirectionInbound,
	}
	dnsFilter = domain.CaptureFilter{
		DstPort:   []int{53},
		Protocol:  domain.ProtocolUDP,
		Operation: domain.OperationExclude,
		Direction: domain.DirectionOutbound,
	}
)

func TestSettingsService_Interfaces(t *testing.T) {
	ctx := context.Background()
	api := new(MockConfigAPI)
	cache := &memCache{}
	svc := NewSettingsService(api, cache)

	ifaces := domain.NetworkInterfaces{Interfaces: []string{"eth0", "wlan0"}, Selected: "eth0"}
	api.On("Interfaces", mock.Anything).Return(ifaces, nil)
	api.On("SelectInterface", mock.Anything, "wlan0").Return("wlan0", nil)

	got, err := svc.Interfaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, ifaces, got)

	selected, err := svc.SelectInterface(ctx, "wlan0")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", selected)
	assert.Equal(t, "wlan0", cache.snap.Interfaces.Selected)

	// Not offered by the backend
	_, err = svc.SelectInterface(ctx, "eth9")
	assert.ErrorIs(t, err, domain.ErrUnknownInterface)

	// Unsafe name never leaves the client
	_, err = svc.SelectInterface(ctx, "eth0; rm -rf /")
	assert.ErrorIs(t, err, domain.ErrInvalidInterfaceName)
	api.AssertNumberOfCalls(t, "SelectInterface", 1)
}

func TestSettingsService_Rules(t *testing.T) {
	ctx := context.Background()
	api := new(MockConfigAPI)
	svc := NewSettingsService(api, nil)

	normalized := domain.ProtocolPortRule{Protocol: "https", Ports: []int{443, 8443}}
	api.On("SaveRule", mock.Anything, normalized).Return(domain.RuleSet{Rules: []domain.ProtocolPortRule{normalized}}, nil)
	api.On("DeleteRule", mock.Anything, domain.ProtocolPortRule{Protocol: "https", Ports: []int{}}).Return(domain.RuleSet{}, nil)

	rules, err := svc.SaveRule(ctx, domain.ProtocolPortRule{Protocol: " HTTPS ", Ports: []int{8443, 443, 443}})
	require.NoError(t, err)
	r, ok := rules.Find("https")
	assert.True(t, ok)
	assert.Equal(t, []int{443, 8443}, r.Ports)

	_, err = svc.SaveRule(ctx, domain.ProtocolPortRule{Protocol: "bad", Ports: []int{70000}})
	assert.ErrorIs(t, err, domain.ErrInvalidPort)

	_, err = svc.SaveRule(ctx, domain.ProtocolPortRule{Protocol: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptyRulePorts)

	rules, err = svc.DeleteRule(ctx, "HTTPS")
	require.NoError(t, err)
	assert.Empty(t, rules.Rules)

	_, err = svc.DeleteRule(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrEmptyRuleProtocol)
	api.AssertNumberOfCalls(t, "SaveRule", 1)
	api.AssertNumberOfCalls(t, "DeleteRule", 1)
}

func TestSettingsService_Filters(t *testing.T) {
	ctx := context.Background()

	t.Run("Add appends to the current list", func(t *testing.T) {
		api := new(MockConfigAPI)
		svc := NewSettingsService(api, nil)

		api.On("Filters", mock.Anything).Return([]domain.CaptureFilter{webFilter}, nil)
		api.On("SaveFilters", mock.Anything, []domain.CaptureFilter{webFilter, dnsFilter}).
			Return([]domain.CaptureFilter{webFilter, dnsFilter}, nil)

		saved, err := svc.AddFilter(ctx, dnsFilter)
		require.NoError(t, err)
		assert.Len(t, saved, 2)
	})

	t.Run("Remove by index", func(t *testing.T) {
		api := new(MockConfigAPI)
		svc := NewSettingsService(api, nil)

		api.On("Filters", mock.Anything).Return([]domain.CaptureFilter{webFilter, dnsFilter}, nil)
		api.On("SaveFilters", mock.Anything, []domain.CaptureFilter{dnsFilter}).
			Return([]domain.CaptureFilter{dnsFilter}, nil)

		saved, err := svc.RemoveFilter(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []domain.CaptureFilter{dnsFilter}, saved)

		_, err = svc.RemoveFilter(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrFilterIndex)
		api.AssertNumberOfCalls(t, "SaveFilters", 1)
	})

	t.Run("Invalid filter is rejected before any request", func(t *testing.T) {
		api := new(MockConfigAPI)
		svc := NewSettingsService(api, nil)

		bad := webFilter
		bad.SrcIP = "not-an-ip"
		_, err := svc.ReplaceFilters(ctx, []domain.CaptureFilter{bad})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
		assert.Len(t, api.Calls, 0)
	})
}

func TestSettingsService_CachedSurvivesBackendOutage(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}

	api := new(MockConfigAPI)
	api.On("Filters", mock.Anything).Return([]domain.CaptureFilter{webFilter}, nil).Once()
	_, err := NewSettingsService(api, cache).Filters(ctx)
	require.NoError(t, err)

	// A fresh service, as after a restart, with the backend down
	down := new(MockConfigAPI)
	down.On("Filters", mock.Anything).Return(nil, domain.NewTransportError(errors.New("refused")))
	svc := NewSettingsService(down, cache)

	_, err = svc.Filters(ctx)
	require.Error(t, err)

	snap, ok, err := svc.Cached(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []domain.CaptureFilter{webFilter}, snap.Filters)
}

func TestSettingsService_UpdateMergesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	cache.SaveSnapshot(ctx, ports.SettingsSnapshot{Filters: []domain.CaptureFilter{webFilter}})

	api := new(MockConfigAPI)
	api.On("Rules", mock.Anything).Return(domain.RuleSet{Rules: []domain.ProtocolPortRule{{Protocol: "dns", Ports: []int{53}}}}, nil)

	_, err := NewSettingsService(api, cache).Rules(ctx)
	require.NoError(t, err)

	assert.Len(t, cache.snap.Filters, 1, "filters from the earlier session are kept")
	assert.Len(t, cache.snap.Rules.Rules, 1)
}

func TestSettingsService_Preview(t *testing.T) {
	svc := NewSettingsService(new(MockConfigAPI), nil)
	assert.Equal(t,
		"(src host 10.0.0.1 and (dst port 443) and tcp) and not ((dst port 53) and udp)",
		svc.Preview([]domain.CaptureFilter{webFilter, dnsFilter}))
	assert.Equal(t, "", svc.Preview(nil))
}
