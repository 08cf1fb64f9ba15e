package ports

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

// SessionStore is the client's persistent key/value area.
type SessionStore interface {
	// Load returns the value and whether the key exists.
	Load(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// SessionContext is the explicit session object handed to every component
// that needs the current credential.
type SessionContext interface {
	// AccessToken returns "" when the client is anonymous.
	AccessToken(ctx context.Context) (string, error)
	// RefreshToken returns "" when none was issued.
	RefreshToken(ctx context.Context) (string, error)
	// Save replaces the stored pair. An empty refresh token removes the stored one.
	Save(ctx context.Context, tokens domain.TokenPair) error
	// Clear discards every credential.
	Clear(ctx context.Context) error
}
