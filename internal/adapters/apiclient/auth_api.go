package apiclient

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// Auth endpoints
const (
	PathLogin   = "/auth/login"
	PathSignup  = "/auth/signup"
	PathLogout  = "/auth/logout"
	PathRefresh = "/auth/refresh"
)

var _ ports.AuthAPI = (*Client)(nil)

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	return c.tokenCall(ctx, PathLogin, creds)
}

// Signup registers a new user.
func (c *Client) Signup(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	return c.tokenCall(ctx, PathSignup, creds)
}

// Logout ends the backend session of the current token.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, PathLogout, nil, nil)
}

// Refresh asks the backend for a new access token. The stored refresh token,
// if any, is sent in the body; the current access token rides in the header.
func (c *Client) Refresh(ctx context.Context) (domain.TokenPair, error) {
	var body any
	if rt, err := c.session.RefreshToken(ctx); err == nil && rt != "" {
		body = map[string]string{"refresh_token": rt}
	}
	return c.tokenCall(ctx, PathRefresh, body)
}

func (c *Client) tokenCall(ctx context.Context, path string, body any) (domain.TokenPair, error) {
	var tokens domain.TokenPair
	if err := c.Post(ctx, path, body, &tokens); err != nil {
		return domain.TokenPair{}, err
	}
	if err := tokens.Validate(); err != nil {
		return domain.TokenPair{}, err
	}
	return tokens, nil
}
