package github

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"

	appErr "github.com/quackscience/copilot-extension-duckdb/internal/pkg/errors"
)

// VerifySignature checks an ASN.1 ECDSA signature over SHA-256 of the
// raw request payload.
func VerifySignature(payload []byte, signatureB64 string, key *ecdsa.PublicKey) error {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return appErr.ErrUnauthorized
	}
	digest := sha256.Sum256(payload)
	if !ecdsa.VerifyASN1(key, digest[:], sig) {
		return appErr.ErrUnauthorized
	}
	return nil
}

// Verifier binds the key cache to signature checks, as consumed by the
// request middleware.
type Verifier struct {
	keys *KeyCache
}

func NewVerifier(keys *KeyCache) *Verifier {
	return &Verifier{keys: keys}
}

func (v *Verifier) Verify(ctx context.Context, payload []byte, keyID, signature string) error {
	if signature == "" {
		return appErr.ErrUnauthorized
	}
	key, err := v.keys.Get(ctx, keyID)
	if err != nil {
		return err
	}
	return VerifySignature(payload, signature, key)
}
