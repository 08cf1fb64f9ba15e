package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
	"github.com/lcalzada-xor/trafficdash/internal/core/services/session"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Status describes the stored session.
type Status struct {
	Authenticated bool           `json:"authenticated"`
	User          *domain.User   `json:"user,omitempty"`
	Claims        session.Claims `json:"claims"`
}

// AuthService drives login, signup, logout and token refresh against the
// backend and keeps the session context in step with the results.
type AuthService struct {
	api       ports.AuthAPI
	session   *session.Manager
	navigator ports.Navigator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(api ports.AuthAPI, sess *session.Manager, nav ports.Navigator) *AuthService {
	return &AuthService{
		api:       api,
		session:   sess,
		navigator: nav,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the default logger.
func (s *AuthService) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Login exchanges credentials for a session and moves to the dashboard.
// Both fields must be filled in; nothing is sent otherwise.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	if err := creds.RequireFields(); err != nil {
		return domain.TokenPair{}, err
	}
	tokens, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.Warn("Login failed", "username", creds.Username, "error", err)
		return domain.TokenPair{}, err
	}
	return tokens, s.establish(ctx, tokens, creds.Username)
}

// Signup registers a user and logs them in. The full form rules apply.
func (s *AuthService) Signup(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	if err := creds.Validate(); err != nil {
		return domain.TokenPair{}, err
	}
	tokens, err := s.api.Signup(ctx, creds)
	if err != nil {
		s.logger.Warn("Signup failed", "username", creds.Username, "error", err)
		return domain.TokenPair{}, err
	}
	return tokens, s.establish(ctx, tokens, creds.Username)
}

// Logout tells the backend and drops the local session. The backend call is
// best effort: tokens are cleared and the login route is shown even if it fails.
func (s *AuthService) Logout(ctx context.Context) error {
	token, err := s.session.AccessToken(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("Backend logout failed, clearing local session anyway", "error", err)
		}
	}
	if err := s.session.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("Logged out")
	return s.navigator.Navigate(ctx, domain.RouteLogin)
}

// Refresh asks the backend for a fresh access token and stores it.
func (s *AuthService) Refresh(ctx context.Context) (domain.TokenPair, error) {
	token, err := s.session.AccessToken(ctx)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if token == "" {
		return domain.TokenPair{}, ErrNotAuthenticated
	}
	tokens, err := s.api.Refresh(ctx)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if tokens.RefreshToken == "" {
		// The backend may rotate only the access token
		if tokens.RefreshToken, err = s.session.RefreshToken(ctx); err != nil {
			return domain.TokenPair{}, err
		}
	}
	if err := s.session.Save(ctx, tokens); err != nil {
		return domain.TokenPair{}, err
	}
	s.logger.Info("Access token refreshed")
	return tokens, nil
}

// Status reports whether a usable session is stored.
func (s *AuthService) Status(ctx context.Context) (Status, error) {
	ok, err := s.session.IsAuthenticated(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{Authenticated: ok}

	claims, err := s.session.Claims(ctx)
	switch {
	case errors.Is(err, session.ErrNotJWT):
		// Opaque token, nothing to decode
	case err != nil:
		return Status{}, err
	default:
		st.Claims = claims
		if claims.Subject != "" {
			st.User = &domain.User{Username: claims.Subject}
		}
	}
	return st, nil
}

func (s *AuthService) establish(ctx context.Context, tokens domain.TokenPair, username string) error {
	if err := s.session.Save(ctx, tokens); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("Session established", "username", username)
	return s.navigator.Navigate(ctx, domain.RouteDashboard)
}
