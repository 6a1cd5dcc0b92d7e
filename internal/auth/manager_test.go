package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/session"
)

type fakeAuthenticator struct {
	mu           sync.Mutex
	loginResp    model.AuthResponse
	loginErr     error
	registerResp model.AuthResponse
	registerErr  error
	profile      model.User
	profileErr   error
	profileCalls int
}

func (f *fakeAuthenticator) Login(context.Context, model.LoginRequest) (model.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthenticator) Register(context.Context, model.RegisterRequest) (model.AuthResponse, error) {
	return f.registerResp, f.registerErr
}

func (f *fakeAuthenticator) Profile(context.Context) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profileCalls++
	return f.profile, f.profileErr
}

var alice = model.User{ID: "user-1", Email: "alice@example.com", Name: "Alice", Role: model.RoleUser}

func newFixture(t *testing.T, start string) (*Manager, *session.Store, *navigation.History, *fakeAuthenticator) {
	t.Helper()
	store := session.NewStore(session.NewMemoryStorage(nil), nil)
	history := navigation.NewHistory(start)
	authenticator := &fakeAuthenticator{}
	manager := NewManager(store, authenticator, history, nil)
	t.Cleanup(manager.Close)
	return manager, store, history, authenticator
}

func TestManagerBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("starts loading", func(t *testing.T) {
		t.Parallel()
		manager, _, _, _ := newFixture(t, navigation.Dashboard)
		state := manager.State()
		if !state.IsLoading || state.User != nil || state.IsAuthenticated {
			t.Fatalf("unexpected initial state %+v", state)
		}
	})

	t.Run("restores a stored session without the network", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Dashboard)
		ctx := context.Background()
		store.Save(ctx, model.Session{Token: "token-1", User: alice})

		manager.Bootstrap(ctx)

		state := manager.State()
		if state.IsLoading || !state.IsAuthenticated || state.User.ID != alice.ID {
			t.Fatalf("unexpected state %+v", state)
		}
		if authenticator.profileCalls != 0 {
			t.Fatalf("expected bootstrap to stay offline")
		}
	})

	t.Run("anonymous without a session", func(t *testing.T) {
		t.Parallel()
		manager, _, _, _ := newFixture(t, navigation.Home)
		manager.Bootstrap(context.Background())
		state := manager.State()
		if state.IsLoading || state.IsAuthenticated {
			t.Fatalf("unexpected state %+v", state)
		}
	})
}

func TestManagerLogin(t *testing.T) {
	t.Parallel()

	t.Run("persists the session", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Login)
		authenticator.loginResp = model.AuthResponse{User: alice, Token: "token-2"}
		ctx := context.Background()
		manager.Bootstrap(ctx)

		var seen []State
		manager.OnChange(func(s State) { seen = append(seen, s) })

		if err := manager.Login(ctx, alice.Email, "secret"); err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if !manager.State().IsAuthenticated {
			t.Fatalf("expected authenticated state")
		}
		if got := store.Load(ctx); got == nil || got.Token != "token-2" || got.User.Email != alice.Email {
			t.Fatalf("expected session to be stored, got %+v", got)
		}
		if store.CookieToken(ctx) != "token-2" {
			t.Fatalf("expected cookie mirror to carry the token")
		}
		if len(seen) != 1 || !seen[0].IsAuthenticated {
			t.Fatalf("expected one change notification, got %+v", seen)
		}
	})

	t.Run("failure carries the server message", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Login)
		authenticator.loginErr = &api.Error{Kind: api.KindUnauthorized, Status: 401, Message: "Invalid credentials"}
		ctx := context.Background()
		manager.Bootstrap(ctx)

		err := manager.Login(ctx, alice.Email, "wrong")
		if !errors.Is(err, ErrLoginFailed) {
			t.Fatalf("expected ErrLoginFailed, got %v", err)
		}
		if got := api.Message(err, "Login failed"); got != "Invalid credentials" {
			t.Fatalf("expected server message, got %q", got)
		}
		if manager.State().IsAuthenticated || store.IsPresent(ctx) {
			t.Fatalf("expected to stay anonymous")
		}
	})

	t.Run("empty response falls back", func(t *testing.T) {
		t.Parallel()
		manager, _, _, _ := newFixture(t, navigation.Login)
		err := manager.Login(context.Background(), alice.Email, "secret")
		if !errors.Is(err, ErrLoginFailed) {
			t.Fatalf("expected ErrLoginFailed, got %v", err)
		}
		if got := api.Message(err, "Login failed"); got != "Login failed" {
			t.Fatalf("expected fallback message, got %q", got)
		}
	})
}

func TestManagerRegister(t *testing.T) {
	t.Parallel()

	manager, store, _, authenticator := newFixture(t, navigation.Register)
	authenticator.registerResp = model.AuthResponse{User: alice, Token: "token-3"}
	ctx := context.Background()

	if err := manager.Register(ctx, model.RegisterRequest{Name: "Alice", Email: alice.Email, Password: "secret"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if store.Token(ctx) != "token-3" || !manager.State().IsAuthenticated {
		t.Fatalf("expected registration to sign in")
	}

	authenticator.registerErr = &api.Error{Kind: api.KindRejected, Status: 409, Message: "Email already registered"}
	if err := manager.Register(ctx, model.RegisterRequest{}); !errors.Is(err, ErrRegisterFailed) {
		t.Fatalf("expected ErrRegisterFailed, got %v", err)
	}
}

func TestManagerLogoutNavigatesHard(t *testing.T) {
	t.Parallel()

	manager, store, history, _ := newFixture(t, navigation.Dashboard)
	ctx := context.Background()
	store.Save(ctx, model.Session{Token: "token-1", User: alice})
	manager.Bootstrap(ctx)

	manager.Logout(ctx)

	if store.IsPresent(ctx) || store.CookieToken(ctx) != "" {
		t.Fatalf("expected session and cookie to be cleared")
	}
	if history.Count(navigation.KindRedirect, navigation.Login) != 1 {
		t.Fatalf("expected a full page navigation to login, got %+v", history.Entries())
	}
	state := manager.State()
	if state.IsAuthenticated || state.IsLoading {
		t.Fatalf("expected anonymous state after re-bootstrap, got %+v", state)
	}
}

func TestManagerRefreshUser(t *testing.T) {
	t.Parallel()

	t.Run("overwrites the cached user and keeps the token", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Dashboard)
		ctx := context.Background()
		store.Save(ctx, model.Session{Token: "token-1", User: alice})
		manager.Bootstrap(ctx)

		promoted := alice
		promoted.Role = model.RoleAdmin
		authenticator.profile = promoted
		manager.RefreshUser(ctx)

		if !manager.User().IsAdmin() {
			t.Fatalf("expected in-memory user to be refreshed")
		}
		stored := store.Load(ctx)
		if stored == nil || stored.Token != "token-1" || !stored.User.IsAdmin() {
			t.Fatalf("expected stored user to be refreshed with the same token, got %+v", stored)
		}
	})

	t.Run("failures keep the cached user", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Dashboard)
		ctx := context.Background()
		store.Save(ctx, model.Session{Token: "token-1", User: alice})
		manager.Bootstrap(ctx)

		authenticator.profileErr = &api.Error{Kind: api.KindTransport, Err: errors.New("connection refused")}
		manager.RefreshUser(ctx)

		if user := manager.User(); user == nil || user.ID != alice.ID {
			t.Fatalf("expected cached user to remain, got %+v", user)
		}
		if !store.IsPresent(ctx) {
			t.Fatalf("expected session to survive a failed refresh")
		}
	})

	t.Run("does not resurrect a cleared session", func(t *testing.T) {
		t.Parallel()
		manager, store, _, authenticator := newFixture(t, navigation.Dashboard)
		ctx := context.Background()
		manager.Bootstrap(ctx)
		authenticator.profile = alice

		manager.RefreshUser(ctx)

		if manager.State().IsAuthenticated || store.IsPresent(ctx) {
			t.Fatalf("expected to remain anonymous")
		}
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	manager, _, _, _ := newFixture(t, navigation.Home)
	ctx := WithManager(context.Background(), manager)
	if FromContext(ctx) != manager {
		t.Fatalf("expected attached manager")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected FromContext to panic without a manager")
		}
	}()
	FromContext(context.Background())
}

func TestManagersAreIndependent(t *testing.T) {
	t.Parallel()

	first, firstStore, _, _ := newFixture(t, navigation.Dashboard)
	second, _, _, _ := newFixture(t, navigation.Dashboard)
	ctx := context.Background()
	firstStore.Save(ctx, model.Session{Token: "token-1", User: alice})

	first.Bootstrap(ctx)
	second.Bootstrap(ctx)

	if !first.State().IsAuthenticated || second.State().IsAuthenticated {
		t.Fatalf("expected managers not to share state")
	}
}

func TestConcurrentUnauthorizedResponsesRedirectOnce(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"Token expired"}`))
	}))
	t.Cleanup(server.Close)

	ctx := context.Background()
	store := session.NewStore(session.NewMemoryStorage(nil), nil)
	store.Save(ctx, model.Session{Token: "expired", User: alice})
	history := navigation.NewHistory(navigation.AdminBookings)
	manager := NewManager(store, &fakeAuthenticator{}, history, nil)
	t.Cleanup(manager.Close)
	manager.Bootstrap(ctx)

	client, err := api.New(api.Config{BaseURL: server.URL}, store, NewUnauthorizedRedirect(store, history, nil), nil)
	if err != nil {
		t.Fatalf("api.New returned error: %v", err)
	}

	const requests = 16
	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- client.Get(ctx, "/bookings/pending", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !api.IsUnauthorized(err) {
			t.Fatalf("expected unauthorized error, got %v", err)
		}
	}
	if store.IsPresent(ctx) || store.CookieToken(ctx) != "" {
		t.Fatalf("expected session to end cleared")
	}
	if got := history.Count(navigation.KindRedirect, navigation.Login); got != 1 {
		t.Fatalf("expected exactly one redirect to login, got %d", got)
	}
	if manager.State().IsAuthenticated {
		t.Fatalf("expected manager to be anonymous after the redirect")
	}
}

func TestUnauthorizedRedirectOnLoginPage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewStore(session.NewMemoryStorage(nil), nil)
	store.Save(ctx, model.Session{Token: "stale", User: alice})
	history := navigation.NewHistory(navigation.Login + "?redirect=/dashboard")

	NewUnauthorizedRedirect(store, history, nil).HandleUnauthorized(ctx)

	if store.IsPresent(ctx) {
		t.Fatalf("expected session to be cleared")
	}
	if len(history.Entries()) != 0 {
		t.Fatalf("expected no navigation while on the login page, got %+v", history.Entries())
	}
}
