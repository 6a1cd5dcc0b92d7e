package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed request.
type Kind string

const (
	// KindUnauthorized is a 401 response; the session has already been cleared.
	KindUnauthorized Kind = "unauthorized"
	// KindRejected is any other non-2xx response, or a 2xx envelope with success=false.
	KindRejected Kind = "rejected"
	// KindTransport means no response was received (network failure, timeout, cancellation).
	KindTransport Kind = "transport"
	// KindDecode means the response could not be decoded.
	KindDecode Kind = "decode"
)

// Error is the failure half of a decoded envelope.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Code    string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("api: ")
	b.WriteString(string(e.Kind))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if msg := e.text(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying transport or decode error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) text() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(e.Code)
}

// KindOf returns the kind of err, or the empty string for non-API errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the user-visible message for err: the server message, then
// the server error field, then fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if msg := apiErr.text(); msg != "" {
			return msg
		}
	}
	return fallback
}
