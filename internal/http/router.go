package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meeting-room-portal/internal/guard"
)

type RouterConfig struct {
	Static     http.Handler
	API        http.Handler
	Rules      guard.Rules
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	responder := newResponder(cfg.Logger)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		responder.writeData(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.API != nil {
		mux.Handle("/api/", cfg.API)
	}

	if cfg.Static != nil {
		mux.Handle("/", cfg.Static)
	}

	var handler http.Handler = guard.Edge(cfg.Rules, cfg.Logger)(mux)
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
