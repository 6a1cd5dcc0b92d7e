// Package session persists the authenticated session of the portal.
//
// A session lives in two places: the local storage keys "token" and "user",
// and a "token" cookie mirror that the edge guard reads. Every write goes
// through a single Mutation so that both copies change together.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Keys and cookie attributes shared with the edge guard.
const (
	TokenKey     = "token"
	UserKey      = "user"
	CookieName   = "token"
	CookiePath   = "/"
	CookieMaxAge = 24 * time.Hour
)

// ErrStorageClosed is returned by storages used after Close.
var ErrStorageClosed = errors.New("session: storage closed")

// CookieRecord is a stored cookie. A MaxAge of zero or less expires the cookie.
type CookieRecord struct {
	Name      string
	Value     string
	Path      string
	MaxAge    time.Duration
	SameSite  http.SameSite
	ExpiresAt time.Time
}

// Mutation is one atomic change to local storage and the cookie mirror.
type Mutation struct {
	Set    map[string]string
	Remove []string
	Cookie *CookieRecord
}

// Storage is the browser-like backing store of a session.
//
// Implementations apply a Mutation atomically: a concurrent Item or Cookie
// call observes either all of it or none of it.
type Storage interface {
	Item(ctx context.Context, key string) (string, bool, error)
	Cookie(ctx context.Context, name string) (CookieRecord, bool, error)
	Apply(ctx context.Context, mutation Mutation) error
}

// Cookie builds the session cookie as sent to a browser.
func Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   int(CookieMaxAge / time.Second),
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie builds the cookie that removes the session cookie from a browser.
func ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	}
}

func tokenCookie(token string) *CookieRecord {
	return &CookieRecord{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredTokenCookie() *CookieRecord {
	return &CookieRecord{
		Name:     CookieName,
		Path:     CookiePath,
		SameSite: http.SameSiteLaxMode,
	}
}
