// Package auth holds the reactive authentication state of the portal.
//
// A Manager is created per runtime and carried on context.Context; there is
// no package level state, so tests can run independent instances side by side.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/session"
)

var (
	// ErrLoginFailed is returned when the API refuses the credentials.
	ErrLoginFailed = errors.New("auth: login failed")
	// ErrRegisterFailed is returned when the API refuses a registration.
	ErrRegisterFailed = errors.New("auth: registration failed")
)

// Authenticator is the subset of the auth service used by the Manager.
type Authenticator interface {
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Profile(ctx context.Context) (model.User, error)
}

// State is a snapshot of the authentication state.
type State struct {
	User            *model.User
	IsLoading       bool
	IsAuthenticated bool
}

// Manager tracks who is signed in. It starts in the loading state until
// Bootstrap reads the persisted session.
type Manager struct {
	mu        sync.RWMutex
	user      *model.User
	loading   bool
	listeners map[int]func(State)
	nextID    int

	store     *session.Store
	auth      Authenticator
	navigator navigation.Navigator
	logger    *slog.Logger
	detach    func()
}

// NewManager constructs a Manager. A full page navigation discards the
// in-memory state and bootstraps again from the session store.
func NewManager(store *session.Store, authenticator Authenticator, navigator navigation.Navigator, logger *slog.Logger) *Manager {
	m := &Manager{
		loading:   true,
		listeners: make(map[int]func(State)),
		store:     store,
		auth:      authenticator,
		navigator: navigator,
		logger:    logging.Default(logger),
	}
	if navigator != nil {
		m.detach = navigator.OnHardNavigation(func(string) {
			m.reload()
		})
	}
	return m
}

// Close stops following hard navigations.
func (m *Manager) Close() {
	if m.detach != nil {
		m.detach()
	}
}

func (m *Manager) log(ctx context.Context, operation string) *slog.Logger {
	return logging.Component(ctx, m.logger, "auth", operation)
}

// Bootstrap loads the persisted session without touching the network.
func (m *Manager) Bootstrap(ctx context.Context) {
	var user *model.User
	if stored := m.store.Load(ctx); stored != nil {
		u := stored.User
		user = &u
	}
	m.set(user, false)
}

func (m *Manager) reload() {
	ctx := context.Background()
	m.set(nil, true)
	m.Bootstrap(ctx)
}

// Login exchanges credentials for a session, persists it and signs the user
// in. On failure the state stays anonymous and the error wraps
// ErrLoginFailed together with the API error; api.Message extracts the text
// to display.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	response, err := m.auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		m.log(ctx, "Login").InfoContext(ctx, "login rejected", "error", err)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if response.Token == "" {
		return ErrLoginFailed
	}
	m.signIn(ctx, response)
	return nil
}

// Register creates an account and signs it in like Login.
func (m *Manager) Register(ctx context.Context, req model.RegisterRequest) error {
	response, err := m.auth.Register(ctx, req)
	if err != nil {
		m.log(ctx, "Register").InfoContext(ctx, "registration rejected", "error", err)
		return fmt.Errorf("%w: %w", ErrRegisterFailed, err)
	}
	if response.Token == "" {
		return ErrRegisterFailed
	}
	m.signIn(ctx, response)
	return nil
}

func (m *Manager) signIn(ctx context.Context, response model.AuthResponse) {
	m.store.Save(ctx, response.Session())
	user := response.User
	m.set(&user, false)
}

// Logout clears the session and performs a full page navigation to the
// login route so every in-memory state is discarded.
func (m *Manager) Logout(ctx context.Context) {
	m.store.Clear(ctx)
	m.set(nil, false)
	if m.navigator != nil {
		m.navigator.Redirect(navigation.Login)
	}
}

// RefreshUser re-fetches the profile and overwrites the cached user while
// keeping the token. Failures are logged and the cached user stays in place.
func (m *Manager) RefreshUser(ctx context.Context) {
	user, err := m.auth.Profile(ctx)
	if err != nil {
		m.log(ctx, "RefreshUser").WarnContext(ctx, "failed to refresh user", "error", err, "error_kind", string(api.KindOf(err)))
		return
	}
	stored := m.store.Load(ctx)
	if stored == nil {
		// The session ended while the profile was loading.
		return
	}
	stored.User = user
	m.store.Save(ctx, *stored)
	m.set(&user, false)
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// User returns the signed in user or nil.
func (m *Manager) User() *model.User {
	return m.State().User
}

// OnChange registers fn to receive every state change.
func (m *Manager) OnChange(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) set(user *model.User, loading bool) {
	m.mu.Lock()
	if user != nil {
		u := *user
		user = &u
	}
	m.user = user
	m.loading = loading
	state := m.snapshotLocked()
	listeners := make([]func(State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (m *Manager) snapshotLocked() State {
	var user *model.User
	if m.user != nil {
		u := *m.user
		user = &u
	}
	return State{User: user, IsLoading: m.loading, IsAuthenticated: user != nil}
}
