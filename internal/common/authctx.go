package common

import (
	"context"
	"slices"
)

type principalKey struct{}

// principal is the authenticated caller attached to a request context.
type principal struct {
	subject string
	caps    []string
}

func principalFrom(ctx context.Context) principal {
	p, _ := ctx.Value(principalKey{}).(principal)
	return p
}

// WithUserID records the authenticated subject, keeping any capabilities already stored.
func WithUserID(ctx context.Context, id string) context.Context {
	p := principalFrom(ctx)
	p.subject = id
	return context.WithValue(ctx, principalKey{}, p)
}

// UserID returns the authenticated subject, if any.
func UserID(ctx context.Context) (string, bool) {
	p := principalFrom(ctx)
	return p.subject, p.subject != ""
}

// WithCapabilities records the capabilities granted to the caller.
func WithCapabilities(ctx context.Context, caps []string) context.Context {
	p := principalFrom(ctx)
	p.caps = slices.Clone(caps)
	return context.WithValue(ctx, principalKey{}, p)
}

// HasCapability reports whether the caller was granted capability.
func HasCapability(ctx context.Context, capability string) bool {
	return slices.Contains(principalFrom(ctx).caps, capability)
}
