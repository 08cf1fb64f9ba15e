package apiclient

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

var _ ports.QueryAPI = (*Client)(nil)

// Query fetches one page of a query kind. Empty parameters are stripped
// from the query string.
func (c *Client) Query(ctx context.Context, params domain.QueryParams) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, params.Kind.Endpoint(), params.Values(), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
