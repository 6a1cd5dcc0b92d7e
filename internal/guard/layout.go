package guard

import (
	"github.com/example/meeting-room-portal/internal/auth"
	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
)

// Decision is the outcome of a layout check.
type Decision int

const (
	// Loading means the auth state is still bootstrapping; render a placeholder.
	Loading Decision = iota
	// Deny means the visitor was sent elsewhere; render nothing.
	Deny
	// Allow means the layout renders its children.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case Deny:
		return "deny"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Layout guards a section of the portal inside the client.
type Layout struct {
	Manager      *auth.Manager
	Navigator    navigation.Navigator
	RequiredRole model.Role
	Fallback     string
}

// AdminLayout admits administrators and sends everyone else to the dashboard.
func AdminLayout(manager *auth.Manager, navigator navigation.Navigator) Layout {
	return Layout{Manager: manager, Navigator: navigator, RequiredRole: model.RoleAdmin, Fallback: navigation.Dashboard}
}

// DashboardLayout admits any signed in user and sends anonymous visitors to login.
func DashboardLayout(manager *auth.Manager, navigator navigation.Navigator) Layout {
	return Layout{Manager: manager, Navigator: navigator, Fallback: navigation.Login}
}

// Check decides whether the section renders. A denial performs a
// client-side navigation to the fallback, never a full page load.
func (l Layout) Check() Decision {
	state := l.Manager.State()
	if state.IsLoading {
		return Loading
	}
	if state.User == nil || (l.RequiredRole != "" && state.User.Role != l.RequiredRole) {
		if l.Navigator != nil {
			fallback := l.Fallback
			if fallback == "" {
				fallback = navigation.Dashboard
			}
			l.Navigator.Push(fallback)
		}
		return Deny
	}
	return Allow
}
