package portal

import (
	"context"

	"github.com/example/meeting-room-portal/internal/model"
	"github.com/example/meeting-room-portal/internal/navigation"
)

// Login validates the credentials, signs the user in and moves them to their
// landing page: administrators to the admin dashboard, everyone else to the
// user dashboard.
func (r *Runtime) Login(ctx context.Context, email, password string) error {
	if err := r.Forms.Login(model.LoginRequest{Email: email, Password: password}); err != nil {
		return err
	}
	if err := r.Manager.Login(ctx, email, password); err != nil {
		return err
	}
	r.Navigator.Push(landing(r.Manager.User()))
	return nil
}

// Register validates the form, creates the account and signs it in.
func (r *Runtime) Register(ctx context.Context, req model.RegisterRequest) error {
	if err := r.Forms.Register(req); err != nil {
		return err
	}
	if err := r.Manager.Register(ctx, req); err != nil {
		return err
	}
	r.Navigator.Push(landing(r.Manager.User()))
	return nil
}

// Logout ends the session. The server is told on a best effort basis; the
// local session is always cleared.
func (r *Runtime) Logout(ctx context.Context) {
	if r.Store.IsPresent(ctx) {
		if err := r.Auth.Logout(ctx); err != nil {
			r.log(ctx, "Logout").DebugContext(ctx, "server logout failed", "error", err)
		}
	}
	r.Manager.Logout(ctx)
}

func landing(user *model.User) string {
	if user != nil && user.IsAdmin() {
		return navigation.AdminDashboard
	}
	return navigation.Dashboard
}
