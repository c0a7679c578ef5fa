package logger

import (
	"context"

	"go.uber.org/zap"
)

type loggerContextKey struct{}

// NewContextWithLogger returns a new context carrying log.
func NewContextWithLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger stored in ctx, or nil.
func FromContext(ctx context.Context) *zap.Logger {
	l, _ := ctx.Value(loggerContextKey{}).(*zap.Logger)
	return l
}

// FromContextOr returns the logger stored in ctx, falling back to log.
func FromContextOr(ctx context.Context, log *zap.Logger) *zap.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return log
}
