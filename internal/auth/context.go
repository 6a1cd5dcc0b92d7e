package auth

import "context"

type contextKey struct{}

// WithManager returns a derived context carrying m.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the Manager carried by ctx. Reading the auth state
// without a Manager is a programming error, so FromContext panics.
func FromContext(ctx context.Context) *Manager {
	if ctx != nil {
		if m, ok := ctx.Value(contextKey{}).(*Manager); ok && m != nil {
			return m
		}
	}
	panic("auth: FromContext called without a Manager; attach one with auth.WithManager")
}
