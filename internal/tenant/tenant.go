// Package tenant resolves which shop a request belongs to and keeps that
// identity on the context for the rest of the request.
package tenant

import (
	"context"
	"strings"
)

type contextKey struct{}

// With stores the tenant slug on the context.
func With(ctx context.Context, slug string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, slug)
}

// From returns the tenant slug from the context, if one was resolved.
func From(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	slug, ok := ctx.Value(contextKey{}).(string)
	if !ok {
		return "", false
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", false
	}
	return slug, true
}

// PrefixKey namespaces a storage key by tenant slug.
func PrefixKey(slug, key string) string {
	if slug == "" {
		return key
	}
	return slug + ":" + key
}
