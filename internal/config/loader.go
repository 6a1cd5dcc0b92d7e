package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the portal binaries.
type Config struct {
	APIBaseURL     string
	FileBaseURL    string
	HTTPPort       int
	SessionDSN     string
	RequestTimeout time.Duration
	StaticDir      string
	MockAPIPort    int
	MockAPISecret  string
}

// Load parses configuration values from the current process environment.
//
// Variables declared in a .env file in the working directory are loaded first
// without overriding values already present in the environment. The legacy
// NEXT_PUBLIC_* names are accepted when the PORTAL_* names are unset.
func Load() (Config, error) {
	return load(true)
}

// LoadMockAPI is Load for the mock API binary, which serves the booking API
// itself and so does not require PORTAL_API_URL. A URL that is set must
// still be valid.
func LoadMockAPI() (Config, error) {
	return load(false)
}

func load(requireAPI bool) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := Config{
		HTTPPort:       3000,
		SessionDSN:     defaultSessionDSN(),
		RequestTimeout: 10 * time.Second,
		StaticDir:      "./public",
		MockAPIPort:    8081,
		MockAPISecret:  "mockapi-development-secret",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	apiURL := lookup("PORTAL_API_URL", "NEXT_PUBLIC_API_URL")
	if apiURL == "" {
		if requireAPI {
			missing = append(missing, "PORTAL_API_URL")
		}
	} else if !validBaseURL(apiURL) {
		invalid = append(invalid, "PORTAL_API_URL")
	} else {
		cfg.APIBaseURL = strings.TrimRight(apiURL, "/")
	}

	if fileURL := lookup("PORTAL_FILE_URL", "NEXT_PUBLIC_FILE_URL"); fileURL != "" {
		if !validBaseURL(fileURL) {
			invalid = append(invalid, "PORTAL_FILE_URL")
		} else {
			cfg.FileBaseURL = strings.TrimRight(fileURL, "/")
		}
	}

	if portValue := lookup("PORTAL_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PORTAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := lookup("PORTAL_SESSION_DSN"); dsn != "" {
		cfg.SessionDSN = dsn
	}

	if timeoutValue := lookup("PORTAL_REQUEST_TIMEOUT"); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PORTAL_REQUEST_TIMEOUT")
		} else {
			cfg.RequestTimeout = timeout
		}
	}

	if dir := lookup("PORTAL_STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}

	if portValue := lookup("PORTAL_MOCKAPI_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PORTAL_MOCKAPI_PORT")
		} else {
			cfg.MockAPIPort = port
		}
	}

	if secret := lookup("PORTAL_MOCKAPI_SECRET"); secret != "" {
		cfg.MockAPISecret = secret
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func lookup(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func validBaseURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// defaultSessionDSN places the session database next to other per-user
// configuration, honouring XDG_CONFIG_HOME.
func defaultSessionDSN() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return "file:" + filepath.Join(os.TempDir(), "roombook-session.db")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return "file:" + filepath.Join(configDirectory, "roombook", "session.db")
}
