package auth

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/session"
)

// UnauthorizedRedirect is the REST client's 401 handler: it clears the
// session and sends the user to the login page.
//
// Clearing runs for every 401. The navigation runs at most once at a time
// and never when the user already is on the login page, so a burst of
// parallel 401 responses produces a single redirect.
type UnauthorizedRedirect struct {
	store     *session.Store
	navigator navigation.Navigator
	logger    *slog.Logger
	inFlight  atomic.Bool
}

// NewUnauthorizedRedirect constructs the handler.
func NewUnauthorizedRedirect(store *session.Store, navigator navigation.Navigator, logger *slog.Logger) *UnauthorizedRedirect {
	return &UnauthorizedRedirect{store: store, navigator: navigator, logger: logging.Default(logger)}
}

// HandleUnauthorized implements api.UnauthorizedHandler.
func (r *UnauthorizedRedirect) HandleUnauthorized(ctx context.Context) {
	r.store.Clear(ctx)
	if r.navigator == nil || navigation.IsLogin(r.navigator.Path()) {
		return
	}
	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer r.inFlight.Store(false)
	if navigation.IsLogin(r.navigator.Path()) {
		return
	}

	logging.Component(ctx, r.logger, "auth", "HandleUnauthorized").InfoContext(ctx, "session rejected, redirecting to login")
	r.navigator.Redirect(navigation.Login)
}
