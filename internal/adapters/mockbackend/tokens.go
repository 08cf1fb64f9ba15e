package mockbackend

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

var (
	ErrInvalidToken = errors.New("could not validate credentials")
	ErrTokenRevoked = errors.New("token has been revoked")
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// TokenClaims are the claims of every token the backend signs.
type TokenClaims struct {
	Kind string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// NewTokenIssuer creates an issuer with a 30 minute access token lifetime.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  30 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		now:        time.Now,
		revoked:    make(map[string]time.Time),
	}
}

// SetAccessTTL changes the access token lifetime.
func (t *TokenIssuer) SetAccessTTL(d time.Duration) {
	t.accessTTL = d
}

// Issue signs a new access and refresh token for username.
func (t *TokenIssuer) Issue(username string) (domain.TokenPair, error) {
	access, err := t.sign(username, kindAccess, t.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := t.sign(username, kindRefresh, t.refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, TokenType: "bearer", RefreshToken: refresh}, nil
}

// IssueAccess signs an access token only.
func (t *TokenIssuer) IssueAccess(username string) (domain.TokenPair, error) {
	access, err := t.sign(username, kindAccess, t.accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, TokenType: "bearer"}, nil
}

// Validate parses token and checks signature, expiry, kind and revocation.
func (t *TokenIssuer) Validate(token, kind string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.revoked[claims.ID]; ok {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks a token until it would have expired anyway.
func (t *TokenIssuer) Revoke(claims *TokenClaims) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, exp := range t.revoked {
		if now.After(exp) {
			delete(t.revoked, id)
		}
	}
	exp := now.Add(t.refreshTTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	t.revoked[claims.ID] = exp
}

func (t *TokenIssuer) sign(username, kind string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := TokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}
