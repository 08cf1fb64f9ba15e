package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
)

type sessionOutput struct {
	Status        string     `json:"status"`
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Route         string     `json:"route,omitempty"`
}

func (r *Runner) credentialFlags(name string, args []string) (domain.Credentials, error) {
	fs := r.flagSet(name)
	var creds domain.Credentials
	fs.StringVar(&creds.Username, "u", "", "Username")
	fs.StringVar(&creds.Password, "p", "", "Password")
	if err := r.parse(fs, args); err != nil {
		return creds, err
	}
	// Same checks as the login form: nothing is sent when they fail
	if err := creds.Validate(); err != nil {
		return creds, err
	}
	return creds, nil
}

func (r *Runner) runLogin(ctx context.Context, args []string) error {
	creds, err := r.credentialFlags("login", args)
	if err != nil {
		return err
	}
	if _, err := r.svc.Auth.Login(ctx, creds); err != nil {
		return err
	}
	return r.print(sessionOutput{Status: "logged in", Authenticated: true, Username: creds.Username, Route: domain.RouteDashboard})
}

func (r *Runner) runSignup(ctx context.Context, args []string) error {
	creds, err := r.credentialFlags("signup", args)
	if err != nil {
		return err
	}
	if _, err := r.svc.Auth.Signup(ctx, creds); err != nil {
		return err
	}
	return r.print(sessionOutput{Status: "signed up", Authenticated: true, Username: creds.Username, Route: domain.RouteDashboard})
}

func (r *Runner) runLogout(ctx context.Context, args []string) error {
	if err := r.parse(r.flagSet("logout"), args); err != nil {
		return err
	}
	if err := r.svc.Auth.Logout(ctx); err != nil {
		return err
	}
	return r.print(sessionOutput{Status: "logged out", Route: domain.RouteLogin})
}

func (r *Runner) runRefresh(ctx context.Context, args []string) error {
	if err := r.parse(r.flagSet("refresh"), args); err != nil {
		return err
	}
	if _, err := r.svc.Auth.Refresh(ctx); err != nil {
		return err
	}
	return r.status(ctx, "refreshed")
}

func (r *Runner) runStatus(ctx context.Context, args []string) error {
	if err := r.parse(r.flagSet("status"), args); err != nil {
		return err
	}
	return r.status(ctx, "")
}

func (r *Runner) status(ctx context.Context, label string) error {
	st, err := r.svc.Auth.Status(ctx)
	if err != nil {
		return err
	}
	out := sessionOutput{Status: label, Authenticated: st.Authenticated}
	if out.Status == "" {
		out.Status = "anonymous"
		if st.Authenticated {
			out.Status = "authenticated"
		}
	}
	if st.User != nil {
		out.Username = st.User.Username
	}
	if !st.Claims.ExpiresAt.IsZero() {
		exp := st.Claims.ExpiresAt
		out.ExpiresAt = &exp
	}
	if r.svc.Navigator != nil {
		route, err := r.svc.Navigator.LastRoute(ctx)
		if err != nil {
			return fmt.Errorf("load last route: %w", err)
		}
		out.Route = route
	}
	return r.print(out)
}
