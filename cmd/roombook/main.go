// Command roombook is the command-line front end of the meeting-room portal.
// Each sub-command renders one page of the portal against the booking API;
// the session is kept in a local SQLite database between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/example/meeting-room-portal/internal/api"
	"github.com/example/meeting-room-portal/internal/auth"
	"github.com/example/meeting-room-portal/internal/config"
	"github.com/example/meeting-room-portal/internal/forms"
	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/portal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := os.Getenv("ROOMBOOK_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := logging.New(os.Stderr, "text", level)

	a := &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		open: func(ctx context.Context, history *navigation.History) (*portal.Runtime, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			return portal.NewRuntime(ctx, cfg, portal.Options{Navigator: history, Logger: logger})
		},
	}
	os.Exit(a.run(ctx, os.Args[1:]))
}

// app carries what every sub-command needs. The runtime is opened lazily so
// that help output works without configuration.
type app struct {
	out    io.Writer
	errOut io.Writer
	open   func(ctx context.Context, history *navigation.History) (*portal.Runtime, error)

	format  string
	history *navigation.History
	rt      *portal.Runtime
}

func (a *app) run(ctx context.Context, args []string) int {
	defer func() {
		if a.rt != nil {
			a.rt.Close()
		}
	}()

	if err := a.root().execute(ctx, args, a.errOut); err != nil {
		a.report(err)
		return 1
	}
	return 0
}

func (a *app) runtime(ctx context.Context, page string) (*portal.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	a.history = navigation.NewHistory(page)
	rt, err := a.open(ctx, a.history)
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}

func (a *app) report(err error) {
	var validationErr *forms.ValidationError
	switch {
	case errors.As(err, &validationErr):
		fmt.Fprintln(a.errOut, "The form has errors:")
		fields := make([]string, 0, len(validationErr.FieldErrors))
		for field := range validationErr.FieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(a.errOut, "  %s: %s\n", field, validationErr.FieldErrors[field])
		}
	case errors.Is(err, portal.ErrAccessDenied):
		if a.history != nil && a.history.Path() == navigation.Login {
			fmt.Fprintln(a.errOut, "You are not signed in. Run 'roombook login' first.")
			return
		}
		fmt.Fprintln(a.errOut, "You do not have access to this page.")
	case errors.Is(err, auth.ErrLoginFailed):
		fmt.Fprintln(a.errOut, api.Message(err, "Login failed"))
	case errors.Is(err, auth.ErrRegisterFailed):
		fmt.Fprintln(a.errOut, api.Message(err, "Registration failed"))
	case api.IsUnauthorized(err):
		fmt.Fprintln(a.errOut, "Your session has expired. Run 'roombook login' to sign in again.")
	case errors.Is(err, portal.ErrReadOnly):
		fmt.Fprintln(a.errOut, "This booking has been cancelled and cannot be modified.")
	case api.KindOf(err) != "":
		fmt.Fprintln(a.errOut, api.Message(err, "Request failed"))
	default:
		fmt.Fprintln(a.errOut, "Error:", err)
	}
}
