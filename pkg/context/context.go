package context

import (
	"context"

	"github.com/google/uuid"
)

type errorContextType struct{}

var ErrorContextKey errorContextType

type responseIdContextType struct{}

var ResponseIdContextKey responseIdContextType

func WithErrorContextValue(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ErrorContextKey, err)
}

func WithResponseIdContextValue(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ResponseIdContextKey, id)
}
