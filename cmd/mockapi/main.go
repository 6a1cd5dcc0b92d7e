// Command mockapi runs the in-memory booking API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/meeting-room-portal/internal/config"
	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/mockapi"
	"github.com/example/meeting-room-portal/internal/model"
)

const demoPassword = "password123"

func main() {
	flags := pflag.NewFlagSet("mockapi", pflag.ExitOnError)
	port := flags.Int("port", 0, "listen port (overrides PORTAL_MOCKAPI_PORT)")
	seed := flags.Bool("seed", true, "create demo accounts and rooms")
	logLevel := flags.String("log-level", "info", "debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	logger := logging.New(os.Stdout, "json", *logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*port)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	server := mockapi.New(mockapi.Config{Secret: cfg.MockAPISecret, Logger: logger})
	if *seed {
		if err := seedDemo(server); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("seeded demo data", "admin", "admin@example.com", "user", "user@example.com", "password", demoPassword)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.MockAPIPort)
	logger.Info("mock API listening", "addr", addr)
	if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the mock API settings; a positive port overrides
// PORTAL_MOCKAPI_PORT.
func loadConfig(port int) (config.Config, error) {
	cfg, err := config.LoadMockAPI()
	if err != nil {
		return config.Config{}, err
	}
	if port > 0 {
		cfg.MockAPIPort = port
	}
	return cfg, nil
}

func seedDemo(server *mockapi.Server) error {
	accounts := []struct {
		name, email string
		role        model.Role
	}{
		{"Admin User", "admin@example.com", model.RoleAdmin},
		{"Regular User", "user@example.com", model.RoleUser},
	}
	for _, account := range accounts {
		if _, err := server.CreateUser(account.name, account.email, demoPassword, account.role); err != nil {
			return fmt.Errorf("create %s: %w", account.email, err)
		}
	}

	rooms := []model.CreateRoomRequest{
		{Name: "Conference Room A", Capacity: 12, Location: "Floor 1"},
		{Name: "Meeting Room B", Capacity: 6, Location: "Floor 2"},
		{Name: "Board Room", Capacity: 20, Location: "Floor 5"},
	}
	for _, req := range rooms {
		if _, err := server.CreateRoom(req); err != nil {
			return fmt.Errorf("create room %s: %w", req.Name, err)
		}
	}
	return nil
}
