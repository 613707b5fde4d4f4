package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxLoggerKey struct{}

// ContextWithLogger attaches a logger to the context
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}

// FromContext retrieves the logger from context, or the global logger when none is attached
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLoggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}

// With creates a child context with additional logger fields
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}

// WithServer tags the context logger with the id of the MCP server being handled
func WithServer(ctx context.Context, id string) context.Context {
	return With(ctx, zap.String("server", id))
}

// WithRequest tags the context logger with an HTTP request id
func WithRequest(ctx context.Context, requestID string) context.Context {
	return With(ctx, zap.String("request_id", requestID))
}
