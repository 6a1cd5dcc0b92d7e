// Package portal wires the client runtime together and exposes one
// controller per page of the booking portal. Controllers are view glue: they
// gate access through the layout guards, read through the query cache and
// publish invalidation topics after successful mutations.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/auth"
	"github.com/example/meeting-room-portal/internal/config"
	"github.com/example/meeting-room-portal/internal/events"
	"github.com/example/meeting-room-portal/internal/forms"
	"github.com/example/meeting-room-portal/internal/guard"
	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/query"
	"github.com/example/meeting-room-portal/internal/service"
	"github.com/example/meeting-room-portal/internal/session"
)

var (
	// ErrReadOnly reports an edit submitted for a booking whose form is read only.
	ErrReadOnly = errors.New("portal: booking is read only")
	// ErrAccessDenied reports a page the layout guard refused to render.
	ErrAccessDenied = errors.New("portal: access denied")
	// ErrLoading reports a page requested before the session was restored.
	ErrLoading = errors.New("portal: session is still loading")
)

// Options overrides the collaborators NewRuntime would otherwise build.
type Options struct {
	Storage    session.Storage
	Navigator  navigation.Navigator
	HTTPClient *http.Client
	Now        func() time.Time
	Logger     *slog.Logger
}

// Runtime is the assembled client: session store, REST client, services,
// auth manager, invalidation bus and query cache.
type Runtime struct {
	Store     *session.Store
	Navigator navigation.Navigator
	Client    *api.Client
	Auth      *service.AuthService
	Bookings  *service.BookingService
	Rooms     *service.RoomService
	Manager   *auth.Manager
	Bus       *events.Bus
	Cache     *query.Cache
	Forms     *forms.Validator

	logger  *slog.Logger
	closers []func()
	storage *session.SQLiteStorage
}

// NewRuntime builds the runtime for cfg and restores the persisted session.
// Without opts.Storage the session lives in the SQLite database named by
// cfg.SessionDSN.
func NewRuntime(ctx context.Context, cfg config.Config, opts Options) (*Runtime, error) {
	logger := logging.Default(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := &Runtime{Navigator: opts.Navigator, logger: logger}
	storage := opts.Storage
	if storage == nil {
		sqlite, err := session.OpenSQLite(ctx, cfg.SessionDSN, now)
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
		r.storage = sqlite
		storage = sqlite
	}
	if r.Navigator == nil {
		r.Navigator = navigation.NewHistory(navigation.Home)
	}

	r.Store = session.NewStore(storage, logger)
	client, err := api.New(api.Config{
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.RequestTimeout,
		HTTPClient: opts.HTTPClient,
	}, r.Store, auth.NewUnauthorizedRedirect(r.Store, r.Navigator, logger), logger)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.Client = client
	r.Auth = service.NewAuthService(client)
	r.Bookings = service.NewBookingService(client)
	r.Rooms = service.NewRoomService(client, cfg.FileBaseURL)
	r.Forms = forms.New()

	r.Bus = events.NewBus()
	r.Cache = query.NewCache(r.Bus, 0, logger)
	r.closers = append(r.closers, r.Cache.Close)
	r.closers = append(r.closers, r.Navigator.OnHardNavigation(func(string) {
		r.Cache.Reset()
	}))

	r.Manager = auth.NewManager(r.Store, r.Auth, r.Navigator, logger)
	r.closers = append(r.closers, r.Manager.Close)
	r.Manager.Bootstrap(ctx)
	return r, nil
}

// Close releases the runtime and its session storage.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
	if r.storage != nil {
		if err := r.storage.Close(); err != nil {
			r.logger.Warn("failed to close session storage", "error", err)
		}
		r.storage = nil
	}
}

// WithManager attaches the auth manager to ctx for code that reads it with
// auth.FromContext.
func (r *Runtime) WithManager(ctx context.Context) context.Context {
	return auth.WithManager(ctx, r.Manager)
}

func (r *Runtime) require(layout guard.Layout) error {
	switch layout.Check() {
	case guard.Allow:
		return nil
	case guard.Loading:
		return ErrLoading
	default:
		return ErrAccessDenied
	}
}

func (r *Runtime) requireUser() error {
	return r.require(guard.DashboardLayout(r.Manager, r.Navigator))
}

func (r *Runtime) requireAdmin() error {
	return r.require(guard.AdminLayout(r.Manager, r.Navigator))
}

func (r *Runtime) log(ctx context.Context, operation string) *slog.Logger {
	return logging.Component(ctx, r.logger, "portal", operation)
}

// bookingTopics are published after any booking mutation.
func bookingTopics(id string) []events.Topic {
	return []events.Topic{
		events.All(events.MyBookings),
		events.All(events.PendingBookings),
		events.All(events.Bookings),
		events.For(events.Booking, id),
		events.All(events.Dashboard),
	}
}

// roomTopics are published after any room or photo mutation.
func roomTopics(roomID string) []events.Topic {
	photos := events.All(events.RoomPhotos)
	if roomID != "" {
		photos = events.For(events.RoomPhotos, roomID)
	}
	return []events.Topic{events.All(events.Rooms), photos}
}
