package guard

import (
	"context"
	"testing"

	"github.com/example/meeting-room-portal/internal/auth"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/session"
)

type nopAuthenticator struct{}

func (nopAuthenticator) Login(context.Context, model.LoginRequest) (model.AuthResponse, error) {
	return model.AuthResponse{}, nil
}

func (nopAuthenticator) Register(context.Context, model.RegisterRequest) (model.AuthResponse, error) {
	return model.AuthResponse{}, nil
}

func (nopAuthenticator) Profile(context.Context) (model.User, error) {
	return model.User{}, nil
}

func newLayoutFixture(t *testing.T, start string, user *model.User) (*auth.Manager, *navigation.History) {
	t.Helper()
	ctx := context.Background()
	store := session.NewStore(session.NewMemoryStorage(nil), nil)
	if user != nil {
		store.Save(ctx, model.Session{Token: "token-1", User: *user})
	}
	history := navigation.NewHistory(start)
	manager := auth.NewManager(store, nopAuthenticator{}, history, nil)
	t.Cleanup(manager.Close)
	return manager, history
}

func TestAdminLayoutRoleGate(t *testing.T) {
	t.Parallel()

	member := &model.User{ID: "user-1", Role: model.RoleUser}
	admin := &model.User{ID: "admin-1", Role: model.RoleAdmin}

	t.Run("loading renders a placeholder without navigating", func(t *testing.T) {
		t.Parallel()
		manager, history := newLayoutFixture(t, navigation.AdminRooms, admin)
		if got := AdminLayout(manager, history).Check(); got != Loading {
			t.Fatalf("expected loading, got %s", got)
		}
		if len(history.Entries()) != 0 {
			t.Fatalf("expected no navigation while bootstrapping")
		}
	})

	t.Run("members are pushed to the dashboard", func(t *testing.T) {
		t.Parallel()
		for _, path := range []string{navigation.AdminDashboard, navigation.AdminBookings, navigation.AdminRooms} {
			manager, history := newLayoutFixture(t, path, member)
			manager.Bootstrap(context.Background())

			if got := AdminLayout(manager, history).Check(); got != Deny {
				t.Fatalf("%s: expected deny, got %s", path, got)
			}
			if history.Count(navigation.KindPush, navigation.Dashboard) != 1 || history.Count(navigation.KindRedirect, navigation.Dashboard) != 0 {
				t.Fatalf("%s: expected a client-side push to the dashboard, got %+v", path, history.Entries())
			}
		}
	})

	t.Run("anonymous visitors are pushed to the dashboard", func(t *testing.T) {
		t.Parallel()
		manager, history := newLayoutFixture(t, navigation.AdminDashboard, nil)
		manager.Bootstrap(context.Background())
		if got := AdminLayout(manager, history).Check(); got != Deny {
			t.Fatalf("expected deny, got %s", got)
		}
		if history.Path() != navigation.Dashboard {
			t.Fatalf("expected dashboard, got %s", history.Path())
		}
	})

	t.Run("administrators render the section", func(t *testing.T) {
		t.Parallel()
		manager, history := newLayoutFixture(t, navigation.AdminDashboard, admin)
		manager.Bootstrap(context.Background())
		if got := AdminLayout(manager, history).Check(); got != Allow {
			t.Fatalf("expected allow, got %s", got)
		}
		if len(history.Entries()) != 0 {
			t.Fatalf("expected no navigation, got %+v", history.Entries())
		}
	})
}

func TestDashboardLayout(t *testing.T) {
	t.Parallel()

	member := &model.User{ID: "user-1", Role: model.RoleUser}

	manager, history := newLayoutFixture(t, navigation.Dashboard, member)
	manager.Bootstrap(context.Background())
	if got := DashboardLayout(manager, history).Check(); got != Allow {
		t.Fatalf("expected members to see the dashboard, got %s", got)
	}

	anonymous, anonHistory := newLayoutFixture(t, navigation.MyBookings, nil)
	anonymous.Bootstrap(context.Background())
	if got := DashboardLayout(anonymous, anonHistory).Check(); got != Deny {
		t.Fatalf("expected deny for anonymous visitors, got %s", got)
	}
	if anonHistory.Path() != navigation.Login {
		t.Fatalf("expected push to login, got %s", anonHistory.Path())
	}
}
