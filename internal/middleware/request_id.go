package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/logctx"
)

// RequestID tags each request with an id, echoes it in the response,
// and attaches a logger carrying it to the request context so the
// query pipeline's log lines can be correlated per request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = newRequestID()
		}
		c.Writer.Header().Set("X-Request-Id", reqID)
		c.Set("request_id", reqID)

		ctx := c.Request.Context()
		logger := logctx.GetLogger(ctx).With(zap.String("request_id", reqID))
		c.Request = c.Request.WithContext(logctx.WithLogger(ctx, logger))
		c.Next()
	}
}

func newRequestID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
