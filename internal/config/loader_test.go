package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func unsetAll(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORTAL_API_URL",
		"NEXT_PUBLIC_API_URL",
		"PORTAL_FILE_URL",
		"NEXT_PUBLIC_FILE_URL",
		"PORTAL_HTTP_PORT",
		"PORTAL_SESSION_DSN",
		"PORTAL_REQUEST_TIMEOUT",
		"PORTAL_STATIC_DIR",
		"PORTAL_MOCKAPI_PORT",
		"PORTAL_MOCKAPI_SECRET",
	} {
		// t.Setenv registers restoration of the original value.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when optional variables are missing", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		t.Setenv("PORTAL_API_URL", "http://api.local/v1/")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.APIBaseURL != "http://api.local/v1" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.APIBaseURL)
		}
		if cfg.HTTPPort != 3000 {
			t.Fatalf("expected default HTTP port 3000, got %d", cfg.HTTPPort)
		}
		if cfg.RequestTimeout != 10*time.Second {
			t.Fatalf("expected default timeout 10s, got %s", cfg.RequestTimeout)
		}
		want := "file:" + filepath.Join("/tmp/xdg", "roombook", "session.db")
		if cfg.SessionDSN != want {
			t.Fatalf("unexpected default DSN: %q", cfg.SessionDSN)
		}
		if cfg.FileBaseURL != "" {
			t.Fatalf("expected empty file URL, got %q", cfg.FileBaseURL)
		}
	})

	t.Run("errors when the API URL is missing", func(t *testing.T) {
		unsetAll(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "missing required environment variables: PORTAL_API_URL"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("accepts legacy public variable names", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("NEXT_PUBLIC_API_URL", "https://api.example.com")
		t.Setenv("NEXT_PUBLIC_FILE_URL", "https://files.example.com/")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.APIBaseURL != "https://api.example.com" {
			t.Fatalf("unexpected API URL: %q", cfg.APIBaseURL)
		}
		if cfg.FileBaseURL != "https://files.example.com" {
			t.Fatalf("unexpected file URL: %q", cfg.FileBaseURL)
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("PORTAL_API_URL", "http://localhost:8081")
		t.Setenv("PORTAL_HTTP_PORT", "9090")
		t.Setenv("PORTAL_SESSION_DSN", "file:/tmp/session.db")
		t.Setenv("PORTAL_REQUEST_TIMEOUT", "3s")
		t.Setenv("PORTAL_MOCKAPI_PORT", "9191")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.RequestTimeout != 3*time.Second {
			t.Fatalf("expected timeout 3s, got %s", cfg.RequestTimeout)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.MockAPIPort != 9191 {
			t.Fatalf("expected mock API port 9191, got %d", cfg.MockAPIPort)
		}
		if cfg.SessionDSN != "file:/tmp/session.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SessionDSN)
		}
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("PORTAL_API_URL", "not a url")
		t.Setenv("PORTAL_HTTP_PORT", "-1")
		t.Setenv("PORTAL_REQUEST_TIMEOUT", "soon")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{"PORTAL_API_URL", "PORTAL_HTTP_PORT", "PORTAL_REQUEST_TIMEOUT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error, got %q", key, err.Error())
			}
		}
	})

	t.Run("mock API loader does not require the API URL", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("PORTAL_MOCKAPI_PORT", "9999")
		t.Setenv("PORTAL_MOCKAPI_SECRET", "local-secret")

		cfg, err := LoadMockAPI()
		if err != nil {
			t.Fatalf("LoadMockAPI returned error: %v", err)
		}
		if cfg.MockAPIPort != 9999 {
			t.Fatalf("expected mock API port 9999, got %d", cfg.MockAPIPort)
		}
		if cfg.MockAPISecret != "local-secret" {
			t.Fatalf("unexpected secret: %q", cfg.MockAPISecret)
		}
		if cfg.APIBaseURL != "" {
			t.Fatalf("expected empty API URL, got %q", cfg.APIBaseURL)
		}
	})

	t.Run("mock API loader still rejects invalid values", func(t *testing.T) {
		unsetAll(t)
		t.Setenv("PORTAL_MOCKAPI_PORT", "zero")

		_, err := LoadMockAPI()
		if err == nil || !strings.Contains(err.Error(), "PORTAL_MOCKAPI_PORT") {
			t.Fatalf("expected invalid port error, got %v", err)
		}
	})
}
