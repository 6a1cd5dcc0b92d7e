// Package guard decides which routes a visitor may see.
//
// The edge layer runs before any page and only checks whether a session
// token is present. The layout layer runs inside the client once the auth
// state is known and is authoritative for roles.
package guard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/meeting-room-portal/internal/logging"
	"github.com/example/meeting-room-portal/internal/navigation"
	"github.com/example/meeting-room-portal/internal/session"
)

// Rules configures the edge guard.
type Rules struct {
	// Protected prefixes require a token.
	Protected []string
	// PublicOnly prefixes are skipped by visitors that hold a token.
	PublicOnly []string
	// Excluded prefixes bypass the guard entirely.
	Excluded []string
	// ExcludedExtensions bypass the guard for static files.
	ExcludedExtensions []string
	Login              string
	Landing            string
}

// DefaultRules returns the routing rules of the portal.
func DefaultRules() Rules {
	return Rules{
		Protected:          []string{navigation.Dashboard, navigation.AdminDashboard},
		PublicOnly:         []string{navigation.Login, navigation.Register},
		Excluded:           []string{"/api", "/_next/static", "/_next/image", "/favicon.ico"},
		ExcludedExtensions: []string{".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp"},
		Login:              navigation.Login,
		Landing:            navigation.Dashboard,
	}
}

// Edge returns middleware that redirects visitors without a token away from
// protected routes and visitors with a token away from login and register.
// It never validates the token or inspects roles.
func Edge(rules Rules, logger *slog.Logger) func(http.Handler) http.Handler {
	if rules.Login == "" {
		rules.Login = navigation.Login
	}
	if rules.Landing == "" {
		rules.Landing = navigation.Dashboard
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if rules.excluded(path) {
				next.ServeHTTP(w, r)
				return
			}

			hasToken := TokenFromRequest(r) != ""
			switch {
			case !hasToken && hasAnyPrefix(path, rules.Protected):
				target := LoginRedirect(rules.Login, path)
				logging.Component(r.Context(), logger, "guard", "Edge").DebugContext(r.Context(), "redirecting anonymous visitor", "path", path, "location", target)
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			case hasToken && hasAnyPrefix(path, rules.PublicOnly):
				logging.Component(r.Context(), logger, "guard", "Edge").DebugContext(r.Context(), "redirecting signed in visitor", "path", path, "location", rules.Landing)
				http.Redirect(w, r, rules.Landing, http.StatusTemporaryRedirect)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// LoginRedirect builds the login URL that returns to path after signing in.
func LoginRedirect(login, path string) string {
	return login + "?redirect=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// TokenFromRequest returns the session token from the token cookie or the
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (r Rules) excluded(path string) bool {
	if hasAnyPrefix(path, r.Excluded) {
		return true
	}
	for _, ext := range r.ExcludedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
