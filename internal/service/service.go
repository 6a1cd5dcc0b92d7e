// Package service maps each logical booking API operation to exactly one
// REST call. Services hold no state beyond the client: no retries, no
// caching, and no business rules. Errors are returned unchanged.
package service

import (
	"context"
	"net/url"

	"github.com/example/meeting-room-portal/internal/api"
)

// Requester is the subset of the REST client used by the services.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
	Upload(ctx context.Context, path string, form api.Form, out any) error
}

func escape(id string) string {
	return url.PathEscape(id)
}
