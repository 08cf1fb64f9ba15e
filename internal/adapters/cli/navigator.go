package cli

import (
	"context"
	"log/slog"

	"github.com/lcalzada-xor/trafficdash/internal/core/domain"
	"github.com/lcalzada-xor/trafficdash/internal/core/ports"
)

var _ ports.Navigator = (*Navigator)(nil)

// Navigator records the route a browser dashboard would have moved to, so
// the next run can report where the last auth transition left the user.
type Navigator struct {
	store  ports.SessionStore
	logger *slog.Logger
}

func NewNavigator(store ports.SessionStore, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{store: store, logger: logger}
}

func (n *Navigator) Navigate(ctx context.Context, route string) error {
	n.logger.Debug("Navigating", "route", route)
	return n.store.Store(ctx, domain.LastRouteKey, route)
}

// LastRoute returns the stored route, or "" when none was recorded.
func (n *Navigator) LastRoute(ctx context.Context) (string, error) {
	route, _, err := n.store.Load(ctx, domain.LastRouteKey)
	return route, err
}
