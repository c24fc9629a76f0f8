package middleware

import (
	"context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX   ctxKey = "is_htmx"
	ctxKeySignedIn ctxKey = "signed_in"
)

// WithHTMX marks request as HTMX
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// WithSignedIn records whether the visitor carries credential cookies. The
// flag only gates UI affordances; the backend remains the authority on every
// call.
func WithSignedIn(ctx context.Context, signed bool) context.Context {
	return context.WithValue(ctx, ctxKeySignedIn, signed)
}

// SignedIn reports whether credential cookies were present on the request.
func SignedIn(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeySignedIn).(bool)
	return v
}
