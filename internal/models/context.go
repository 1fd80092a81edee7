package models

import "context"

type refreshKey struct{}

// WithRefresh marks ctx so that cached lookups go to the provider instead.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func RefreshRequested(ctx context.Context) bool {
	v, ok := ctx.Value(refreshKey{}).(bool)
	return ok && v
}
