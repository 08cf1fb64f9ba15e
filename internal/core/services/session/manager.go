package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

var ErrNotJWT = errors.New("access token is not a JWT")

// Ensure interface compliance
var _ ports.SessionContext = (*Manager)(nil)

// Claims is what the client can read from an access token without the
// signing key.
type Claims struct {
	Subject   string    `json:"sub"`
	ExpiresAt time.Time `json:"exp,omitempty"`
}

// Expired reports whether the token carries an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Manager is the session context over a persistent store. Writes are
// serialized so a token pair is never half-saved by two goroutines.
type Manager struct {
	store ports.SessionStore
	mu    sync.Mutex
	now   func() time.Time
}

// NewManager wraps a store.
func NewManager(store ports.SessionStore) *Manager {
	return &Manager{store: store, now: time.Now}
}

// AccessToken returns the stored access token or "".
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	return m.load(ctx, domain.AccessTokenKey)
}

// RefreshToken returns the stored refresh token or "".
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.load(ctx, domain.RefreshTokenKey)
}

// Save replaces the stored token pair.
func (m *Manager) Save(ctx context.Context, tokens domain.TokenPair) error {
	if err := tokens.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Store(ctx, domain.AccessTokenKey, tokens.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if tokens.RefreshToken == "" {
		if err := m.store.Remove(ctx, domain.RefreshTokenKey); err != nil {
			return fmt.Errorf("remove refresh token: %w", err)
		}
		return nil
	}
	if err := m.store.Store(ctx, domain.RefreshTokenKey, tokens.RefreshToken); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// Clear removes both tokens.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(ctx, domain.AccessTokenKey); err != nil {
		return fmt.Errorf("remove access token: %w", err)
	}
	if err := m.store.Remove(ctx, domain.RefreshTokenKey); err != nil {
		return fmt.Errorf("remove refresh token: %w", err)
	}
	return nil
}

// Claims decodes the access token payload. The signature is not checked;
// the backend remains the authority on validity.
func (m *Manager) Claims(ctx context.Context) (Claims, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return Claims{}, err
	}
	if token == "" {
		return Claims{}, nil
	}
	return ParseClaims(token)
}

// IsAuthenticated reports a stored token that is not known to be expired.
// Opaque (non-JWT) tokens count as authenticated.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := m.AccessToken(ctx)
	if err != nil || token == "" {
		return false, err
	}
	claims, err := ParseClaims(token)
	if errors.Is(err, ErrNotJWT) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return !claims.Expired(m.now()), nil
}

// ParseClaims reads subject and expiry from a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &rc); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

func (m *Manager) load(ctx context.Context, key string) (string, error) {
	v, ok, err := m.store.Load(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
