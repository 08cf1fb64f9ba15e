package apiclient

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// Settings endpoints
const (
	PathInterfaces = "/config/interfaces"
	PathRules      = "/config/rules"
	PathFilters    = "/config/filter"
)

var _ ports.ConfigAPI = (*Client)(nil)

func (c *Client) Interfaces(ctx context.Context) (domain.NetworkInterfaces, error) {
	var out domain.NetworkInterfaces
	err := c.Get(ctx, PathInterfaces, nil, &out)
	return out, err
}

// SelectInterface returns the interface name the backend acknowledged.
func (c *Client) SelectInterface(ctx context.Context, name string) (string, error) {
	var selected string
	if err := c.Post(ctx, PathInterfaces, domain.InterfaceSelection{Interface: name}, &selected); err != nil {
		return "", err
	}
	return selected, nil
}

func (c *Client) Rules(ctx context.Context) (domain.RuleSet, error) {
	var out domain.RuleSet
	err := c.Get(ctx, PathRules, nil, &out)
	return out, err
}

func (c *Client) SaveRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error) {
	var out domain.RuleSet
	err := c.Post(ctx, PathRules, rule, &out)
	return out, err
}

func (c *Client) DeleteRule(ctx context.Context, rule domain.ProtocolPortRule) (domain.RuleSet, error) {
	var out domain.RuleSet
	err := c.Delete(ctx, PathRules, rule, &out)
	return out, err
}

func (c *Client) Filters(ctx context.Context) ([]domain.CaptureFilter, error) {
	out := []domain.CaptureFilter{}
	err := c.Get(ctx, PathFilters, nil, &out)
	return out, err
}

func (c *Client) SaveFilters(ctx context.Context, filters []domain.CaptureFilter) ([]domain.CaptureFilter, error) {
	if filters == nil {
		filters = []domain.CaptureFilter{}
	}
	out := []domain.CaptureFilter{}
	err := c.Post(ctx, PathFilters, filters, &out)
	return out, err
}
