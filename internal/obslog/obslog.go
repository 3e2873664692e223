// Package obslog carries a zap sugared logger through context.Context, the
// same way the surrounding stack passes loggers from request scope down
// into library code instead of threading an explicit parameter.
package obslog

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// NewDevelopment returns a sugared logger configured for local runs: human
// readable, debug level, stack traces on warn+.
func NewDevelopment() *zap.SugaredLogger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		// zap.NewDevelopment only fails if the process's stderr sink can't
		// be opened, which makes continuing pointless.
		panic(err)
	}
	return logger.Sugar()
}

// NewProduction returns a sugared logger configured for deployed runs:
// JSON encoding, info level, sampling enabled.
func NewProduction() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger.Sugar()
}

// Into attaches logger to ctx, returning a derived context.
func Into(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx, or a no-op production
// logger if none was attached.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && logger != nil {
		return logger
	}
	return zap.NewNop().Sugar()
}

// Named returns FromContext(ctx) scoped under name, for subsystem-level
// logs (e.g. "solver", "stroboscopic").
func Named(ctx context.Context, name string) *zap.SugaredLogger {
	return FromContext(ctx).Named(name)
}
