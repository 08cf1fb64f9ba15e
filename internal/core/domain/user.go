package domain

import (
	"errors"
	"strings"
)

// MinPasswordLength is the shortest password the login and signup forms accept.
const MinPasswordLength = 8

// Session storage keys. The values are stable because other clients of the
// same store (older dashboards) read them directly.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
	LastRouteKey    = "last_route"
)

// Routes a client moves to after an auth transition.
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/login"
)

var (
	ErrEmptyUsername    = errors.New("username is required")
	ErrEmptyPassword    = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrEmptyAccessToken = errors.New("auth response carries no access token")
)

// Credentials is the login and signup form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate runs the client-side form checks. It never touches the network.
func (c Credentials) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, ErrEmptyUsername)
	}
	switch {
	case c.Password == "":
		errs = append(errs, ErrEmptyPassword)
	case len([]rune(c.Password)) < MinPasswordLength:
		errs = append(errs, ErrPasswordTooShort)
	}
	return errors.Join(errs...)
}

// TokenPair is the session credential returned by the auth endpoints.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Validate checks the response is usable as a session.
func (t TokenPair) Validate() error {
	if t.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	return nil
}

// User is the identity decoded from an access token.
type User struct {
	Username string `json:"username"`
}

// RequireFields checks only that both fields are filled in. It is the check
// applied to programmatic logins, where the form's length rule does not run.
func (c Credentials) RequireFields() error {
	var errs []error
	if strings.TrimSpace(c.Username) == "" {
		errs = append(errs, ErrEmptyUsername)
	}
	if c.Password == "" {
		errs = append(errs, ErrEmptyPassword)
	}
	return errors.Join(errs...)
}
