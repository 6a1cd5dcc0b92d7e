// Package navigation models where the user currently is in the portal and
// how the runtime moves them between routes.
package navigation

import (
	"strings"
	"sync"
)

// Route paths of the portal.
const (
	Home            = "/"
	Login           = "/auth/login"
	Register        = "/auth/register"
	Dashboard       = "/dashboard"
	MyBookings      = "/dashboard/bookings"
	CreateBooking   = "/dashboard/bookings/create"
	AdminDashboard  = "/admin"
	AdminBookings   = "/admin/bookings"
	AdminRooms      = "/admin/rooms"
	bookingPrefix   = "/dashboard/bookings/"
	editBookingPath = "/dashboard/bookings/edit/"
)

// BookingDetail returns the detail route of a booking.
func BookingDetail(id string) string {
	return bookingPrefix + id
}

// EditBooking returns the edit route of a booking.
func EditBooking(id string) string {
	return editBookingPath + id
}

// IsLogin reports whether path is the login page, ignoring any query string.
func IsLogin(path string) bool {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.HasPrefix(path, Login)
}

// Navigator moves the user between routes.
//
// Push is a client-side transition that keeps in-memory state. Redirect is a
// full-page navigation: every listener registered with OnHardNavigation runs
// so that caches and reactive state are discarded.
type Navigator interface {
	Path() string
	Push(path string)
	Redirect(path string)
	OnHardNavigation(fn func(path string)) (cancel func())
}

// Kind distinguishes soft and hard navigations in the history.
type Kind string

const (
	KindPush     Kind = "push"
	KindRedirect Kind = "redirect"
)

// Entry is one recorded navigation.
type Entry struct {
	Kind Kind
	Path string
}

// History is an in-memory Navigator that records every navigation.
type History struct {
	mu        sync.Mutex
	current   string
	entries   []Entry
	listeners map[int]func(string)
	nextID    int
}

// NewHistory returns a navigator positioned at start.
func NewHistory(start string) *History {
	if start == "" {
		start = Home
	}
	return &History{current: start, listeners: make(map[int]func(string))}
}

// Path returns the current route.
func (h *History) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Push records a client-side transition.
func (h *History) Push(path string) {
	h.mu.Lock()
	h.current = path
	h.entries = append(h.entries, Entry{Kind: KindPush, Path: path})
	h.mu.Unlock()
}

// Redirect records a full-page navigation and notifies hard navigation listeners.
func (h *History) Redirect(path string) {
	h.mu.Lock()
	h.current = path
	h.entries = append(h.entries, Entry{Kind: KindRedirect, Path: path})
	listeners := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
}

// OnHardNavigation registers fn to run after every Redirect.
func (h *History) OnHardNavigation(fn func(path string)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Entries returns a copy of the recorded navigations.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Count returns how many navigations of kind k targeted path.
func (h *History) Count(k Kind, path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, entry := range h.entries {
		if entry.Kind == k && entry.Path == path {
			n++
		}
	}
	return n
}
