package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/logctx"
)

const (
	HeaderToken         = "X-GitHub-Token"
	HeaderKeySignature  = "Github-Public-Key-Signature"
	HeaderKeyIdentifier = "Github-Public-Key-Identifier"

	ContextPayloadKey = "payload"
)

// SignatureVerifier checks that payload was signed by the key named in
// the request headers.
type SignatureVerifier interface {
	Verify(ctx context.Context, payload []byte, keyID, signature string) error
}

// PayloadSignature reads the raw body, rejects requests whose signature
// does not verify with a plain-text 401 before any streaming begins,
// and hands the verified payload to the handler through the context.
func PayloadSignature(verifier SignatureVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "failed to read request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(payload))

		keyID := c.GetHeader(HeaderKeyIdentifier)
		signature := c.GetHeader(HeaderKeySignature)
		if err := verifier.Verify(c.Request.Context(), payload, keyID, signature); err != nil {
			logctx.GetLogger(c.Request.Context()).Warn("payload signature rejected",
				zap.String("key_id", keyID), zap.Error(err))
			c.String(http.StatusUnauthorized, "invalid payload signature")
			c.Abort()
			return
		}
		c.Set(ContextPayloadKey, payload)
		c.Next()
	}
}
