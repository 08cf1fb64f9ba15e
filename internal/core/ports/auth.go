package ports

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error)
	// Signup registers a user and returns its first token pair.
	Signup(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error)
	// Logout ends the server-side session of the current token.
	Logout(ctx context.Context) error
	// Refresh asks for a new access token.
	Refresh(ctx context.Context) (domain.TokenPair, error)
}

// Navigator receives the route a UI would move to after an auth transition.
type Navigator interface {
	Navigate(ctx context.Context, route string) error
}
