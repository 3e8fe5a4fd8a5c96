package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// StoragePath maps a user identity to its database file under root.
// The identity never appears in the path; only the first 16 hex
// characters of its SHA-256 digest do. Deterministic per identity,
// distinct identities collide only with hash-collision probability.
func StoragePath(root, identity string) string {
	sum := sha256.Sum256([]byte(identity))
	digest := hex.EncodeToString(sum[:])[:16]
	return filepath.Join(root, fmt.Sprintf("duckdb_%s.db", digest))
}
