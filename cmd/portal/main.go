// Command portal serves the meeting-room portal front end. It hosts the
// built single page application, proxies /api/ to the booking API and
// applies the edge route guard to every page request.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/meeting-room-portal/internal/config"
	"github.com/example/meeting-room-portal/internal/guard"
	httptransport "github.com/example/meeting-room-portal/internal/http"
	"github.com/example/meeting-room-portal/internal/logging"
)

func main() {
	flags := pflag.NewFlagSet("portal", pflag.ExitOnError)
	port := flags.Int("port", 0, "listen port (overrides PORTAL_HTTP_PORT)")
	static := flags.String("static", "", "directory of the built front end (overrides PORTAL_STATIC_DIR)")
	logLevel := flags.String("log-level", "info", "debug, info, warn or error")
	_ = flags.Parse(os.Args[1:])

	logger := logging.New(os.Stdout, "json", *logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.HTTPPort = *port
	}
	if *static != "" {
		cfg.StaticDir = *static
	}

	handler, err := newHandler(cfg, logger)
	if err != nil {
		logger.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("portal listening", "addr", server.Addr, "api", cfg.APIBaseURL, "static_dir", cfg.StaticDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func newHandler(cfg config.Config, logger *slog.Logger) (http.Handler, error) {
	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("static directory %q is not readable", cfg.StaticDir)
	}
	api, err := httptransport.NewAPIProxy(cfg.APIBaseURL, logger)
	if err != nil {
		return nil, err
	}
	return httptransport.NewRouter(httptransport.RouterConfig{
		Static:     httptransport.NewStaticHandler(os.DirFS(cfg.StaticDir)),
		API:        api,
		Rules:      guard.DefaultRules(),
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}), nil
}
