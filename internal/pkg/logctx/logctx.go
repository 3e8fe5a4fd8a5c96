// Package logctx carries a request-scoped logger through the context,
// so every log line of one request shares its fields (request id,
// login) without threading a logger through each call.
package logctx

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ctxKey struct{}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// GetLogger returns the request-scoped logger, falling back to the
// process logger when none was attached.
func GetLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return logger
	}
	return logutil.GetLogger(ctx)
}
