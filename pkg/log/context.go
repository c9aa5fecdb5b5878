package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a request-scoped logger in ctx.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the request logger, or the global one outside a request.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return global
}

// WithPair tags the request logger with one relationship operation and
// the two users it touches.
func WithPair(ctx context.Context, operation, senderID, recipientID string) zerolog.Logger {
	return Ctx(ctx).With().
		Str(FieldOperation, operation).
		Str(FieldSenderID, senderID).
		Str(FieldRecipientID, recipientID).
		Logger()
}
