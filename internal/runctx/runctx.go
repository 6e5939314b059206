// Package runctx carries the identifier of one evaluation round through a
// context.
package runctx

import (
	"context"

	"github.com/google/uuid"
)

// runIDKey is the context key for storing the run ID
type runIDKey struct{}

// WithRunID returns ctx carrying a run ID. An ID already present in ctx is
// kept; otherwise a new UUID is generated.
func WithRunID(ctx context.Context) context.Context {
	if RunID(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, uuid.New().String())
}

// WithGivenRunID returns ctx carrying id.
func WithGivenRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID retrieves the run ID from the context
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}
