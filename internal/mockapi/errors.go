package mockapi

import (
	"errors"
	"net/http"
)

// Failure is an error answered with a non-2xx envelope.
type Failure struct {
	Status  int
	Code    string
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

func badRequest(message string) error {
	return &Failure{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: message}
}

func unauthorized(message string) error {
	return &Failure{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

func forbidden(message string) error {
	return &Failure{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: message}
}

func notFound(message string) error {
	return &Failure{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: message}
}

func conflict(message string) error {
	return &Failure{Status: http.StatusConflict, Code: "CONFLICT", Message: message}
}

// statusOf maps err to the response status, 500 for anything unexpected.
func statusOf(err error) int {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Status
	}
	return http.StatusInternalServerError
}
