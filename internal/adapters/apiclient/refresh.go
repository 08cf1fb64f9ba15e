package apiclient

import (
	"context"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

// Refresher is the recovery step tried once when the backend answers 401.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// SessionRefresher is the default 401 step. The backend has no settled
// refresh protocol, so it only reports why no recovery is possible:
// ErrNoRefreshToken when none is stored, ErrRefreshNotImplemented otherwise.
// The original request is never re-issued.
type SessionRefresher struct {
	session ports.SessionContext
}

// NewSessionRefresher creates the default refresher.
func NewSessionRefresher(session ports.SessionContext) *SessionRefresher {
	return &SessionRefresher{session: session}
}

func (r *SessionRefresher) Refresh(ctx context.Context) error {
	token, err := r.session.RefreshToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return domain.ErrNoRefreshToken
	}
	return domain.ErrRefreshNotImplemented
}
